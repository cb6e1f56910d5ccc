// Copyright 2025 Joseph Cumines
//
// Debug viewer: a minimal HTML page that polls the latest capture artifact

package server

import (
	"os"

	"github.com/joeycumines/screenpilot/internal/transport"
)

const debugPageHTML = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <title>screenpilot debug viewer</title>
    <style>
      body { margin: 0; background: #1e1e1e; color: #ccc; font-family: system-ui, -apple-system, Segoe UI, Roboto, Helvetica, Arial, sans-serif; }
      header { padding: 8px 12px; font-size: 13px; }
      img { display: block; max-width: 100%; }
    </style>
  </head>
  <body>
    <header id="meta">waiting for first capture…</header>
    <img id="shot" alt="latest capture" />
    <script>
      const token = new URLSearchParams(location.search).get("token") || "";
      let seq = 0;
      async function poll() {
        try {
          const resp = await fetch("/debug/meta?token=" + encodeURIComponent(token));
          if (resp.ok) {
            const meta = await resp.json();
            if (meta.seq && meta.seq !== seq) {
              seq = meta.seq;
              document.getElementById("shot").src =
                "/debug/image?token=" + encodeURIComponent(token) + "&seq=" + seq;
              document.getElementById("meta").textContent =
                "capture #" + seq + " at " + meta.captured_at;
            }
          }
        } catch (err) {
          document.getElementById("meta").textContent = "poll failed: " + err;
        }
        setTimeout(poll, 1000);
      }
      poll();
    </script>
  </body>
</html>`

// handleDebugPage serves GET /debug.
func (g *Gateway) handleDebugPage(req *transport.Request) *transport.Response {
	return transport.HTMLResponse(200, debugPageHTML)
}

// handleDebugImage serves GET /debug/image: the most recent capture artifact
// as PNG bytes. Artifacts live on disk so the viewer works even after the
// capture that produced them has been returned to its caller.
func (g *Gateway) handleDebugImage(req *transport.Request) *transport.Response {
	latest := g.engine.Artifacts().Latest()
	if latest.Seq == 0 {
		return errorJSON(404, "not_found", "no capture artifact yet")
	}
	data, err := os.ReadFile(latest.Path)
	if err != nil {
		return errorJSON(404, "not_found", "artifact no longer on disk")
	}
	return transport.PNGResponse(data)
}

// handleDebugMeta serves GET /debug/meta. Seq is zero until the first
// capture; the page uses it to detect fresh frames without re-fetching
// the image.
func (g *Gateway) handleDebugMeta(req *transport.Request) *transport.Response {
	return transport.JSONResponse(200, g.engine.Artifacts().Latest())
}
