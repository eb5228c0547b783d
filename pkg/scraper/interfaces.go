package scraper

import "context"

// AlbumClient defines the HTTP operations the scraper needs
type AlbumClient interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
	DownloadImage(ctx context.Context, imageURL string) ([]byte, error)
}
