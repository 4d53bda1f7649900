package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const indexHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>MCX Aluminium Prices</title></head>
<body>
<h1>MCX Aluminium Price Extractor</h1>
<ul>
  <li><a href="/scrape">/scrape</a> runs an extraction now and returns the result</li>
  <li><a href="/latest">/latest</a> returns the most recent result</li>
  <li><a href="/stream">/stream</a> pushes the latest result as server-sent events</li>
  <li><a href="/download">/download</a> downloads the CSV history</li>
  <li><a href="/health">/health</a> reports service status</li>
</ul>
</body>
</html>
`

// Index returns a handler for GET /.
func Index() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
	}
}
