package douban

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stubAlbum = `<!DOCTYPE html>
<html><head><title>album</title></head>
<body>
  <div class="photolst">
    <a href="/photos/photo/1/"><img src="https://img3.doubanio.com/m/photo1.jpg" /></a>
    <a href="/photos/photo/2/"><img src="https://img3.doubanio.com/m/photo2.jpg" /></a>
    <img src="https://example.com/m/unrelated.png" />
  </div>
</body></html>`

func TestExtractImageLinksStubAlbum(t *testing.T) {
	links, err := ExtractImageLinks(stubAlbum, "https://www.douban.com/photos/album/1/")
	require.NoError(t, err)
	require.Len(t, links, 2)

	assert.Equal(t, ImageLink{Index: 1, URL: "https://img3.doubanio.com/l/photo1.jpg"}, links[0])
	assert.Equal(t, ImageLink{Index: 2, URL: "https://img3.doubanio.com/l/photo2.jpg"}, links[1])
}

func TestExtractImageLinksFiltering(t *testing.T) {
	markup := `<html><body>
		<img src="https://img1.doubanio.com/view/photo/m/public/p1.webp">
		<img src="http://img1.doubanio.com/m/insecure.jpg">
		<img src="https://img12.doubanio.com/m/two-digits.jpg">
		<img src="https://imgx.doubanio.com/m/letter.jpg">
		<img src="https://img9.doubanio.com.evil.net/m/spoof.jpg">
		<img data-src="https://img2.doubanio.com/m/lazy.jpg">
		<img src="https://img2.doubanio.com/icon/u1.jpg">
		<script>var s = '<img src="https://img4.doubanio.com/m/in-script.jpg">';</script>
	</body></html>`

	links, err := ExtractImageLinks(markup, "page")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://img1.doubanio.com/view/photo/l/public/p1.webp",
		"https://img2.doubanio.com/icon/u1.jpg",
	}, URLs(links))
}

func TestExtractImageLinksKeepsDuplicatesInOrder(t *testing.T) {
	markup := `<img src="https://img3.doubanio.com/m/b.jpg">
		<img src="https://img3.doubanio.com/m/a.jpg">
		<img src="https://img3.doubanio.com/m/b.jpg">`

	links, err := ExtractImageLinks(markup, "page")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://img3.doubanio.com/l/b.jpg",
		"https://img3.doubanio.com/l/a.jpg",
		"https://img3.doubanio.com/l/b.jpg",
	}, URLs(links))
	assert.Equal(t, 3, links[2].Index)
}

func TestExtractImageLinksEmpty(t *testing.T) {
	for _, markup := range []string{"", "<html><body><p>no photos</p></body></html>"} {
		links, err := ExtractImageLinks(markup, "page")
		require.NoError(t, err)
		assert.NotNil(t, links)
		assert.Empty(t, links)
	}
}

func TestLargeVariantOnlyTouchesMediumSegment(t *testing.T) {
	inputs := []string{
		"https://img1.doubanio.com/m/p1.jpg",
		"https://img3.doubanio.com/view/photo/m/public/p2.jpg",
		"https://img9.doubanio.com/view/m/photo/m/public/p3.jpg",
		"https://img2.doubanio.com/view/photo/l/public/already-large.jpg",
		"https://img5.doubanio.com/mm/notasegment.jpg",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			out := LargeVariant(in)

			before, err := url.Parse(in)
			require.NoError(t, err)
			after, err := url.Parse(out)
			require.NoError(t, err)

			assert.Equal(t, before.Scheme, after.Scheme)
			assert.Equal(t, before.Host, after.Host)
			assert.NotContains(t, after.Path, "/m/")

			inSegs := strings.Split(before.Path, "/")
			outSegs := strings.Split(after.Path, "/")
			require.Equal(t, len(inSegs), len(outSegs))
			for i := range inSegs {
				if inSegs[i] == "m" {
					assert.Equal(t, "l", outSegs[i])
				} else {
					assert.Equal(t, inSegs[i], outSegs[i])
				}
			}
		})
	}
}

func TestIsImageHostURL(t *testing.T) {
	assert.True(t, IsImageHostURL("https://img0.doubanio.com/x"))
	assert.True(t, IsImageHostURL("https://img7.doubanio.com/"))
	assert.False(t, IsImageHostURL("https://img7.doubanio.com"))
	assert.False(t, IsImageHostURL(" https://img7.doubanio.com/x"))
	assert.False(t, IsImageHostURL("https://img.doubanio.com/x"))
}
