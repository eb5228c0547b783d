// Package douban talks to Douban's public album pages.
//
// Client performs the two kinds of request the pipeline needs: one GET for
// the album page (FetchPage, whose failures are fatal) and one GET per photo
// (DownloadImage, whose failures are per-item). Both send the configured
// browser User-Agent.
//
// ExtractImageLinks selects <img> elements served from img<N>.doubanio.com
// and swaps the "/m/" rendition for "/l/".
package douban
