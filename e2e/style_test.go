package e2e

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"
)

// createMultipartStyleRequest builds a multipart/form-data request carrying one file.
func createMultipartStyleRequest(t *testing.T, id, token, contentType string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", `form-data; name="file"; filename="reference"`)
	partHeader.Set("Content-Type", contentType)
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	_, _ = part.Write(data)
	writer.Close()

	req, err := http.NewRequest(http.MethodPost, "/api/productions/"+id+"/style/image?wait=true", &buf)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func styleOf(t *testing.T, p map[string]interface{}) map[string]interface{} {
	t.Helper()
	style, ok := p["style"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected style in %v", p)
	}
	return style
}

func TestStyle_FromQuery(t *testing.T) {
	ta := setupApp(t)
	id, token := createProduction(t, ta.app, "")
	base := "/api/productions/" + id

	resp := doAuthRequest(t, ta.app, token, http.MethodPost, base+"/style/query?wait=true", `{"query":"film noir"}`)
	assertStatus(t, resp, http.StatusOK)

	style := styleOf(t, production(t, parseJSON(t, resp)))
	if style["source"] != "query" {
		t.Errorf("source = %v", style["source"])
	}
	if text, _ := style["text"].(string); !strings.Contains(text, "film noir") {
		t.Errorf("text = %s", text)
	}
}

func TestStyle_FromStoredQuery(t *testing.T) {
	ta := setupApp(t)
	id, token := createProduction(t, ta.app, "")
	base := "/api/productions/" + id

	resp := doAuthRequest(t, ta.app, token, http.MethodPost, base+"/style/query?wait=true", "")
	assertStatus(t, resp, http.StatusBadRequest)

	resp = doAuthRequest(t, ta.app, token, http.MethodPut, base+"/style-query", `{"text":"cyberpunk"}`)
	assertStatus(t, resp, http.StatusOK)

	resp = doAuthRequest(t, ta.app, token, http.MethodPost, base+"/style/query?wait=true", "")
	assertStatus(t, resp, http.StatusOK)
	style := styleOf(t, production(t, parseJSON(t, resp)))
	if style["query"] != "cyberpunk" {
		t.Errorf("query = %v", style["query"])
	}
}

func TestStyle_FromImage(t *testing.T) {
	ta := setupApp(t)
	id, token := createProduction(t, ta.app, "")

	resp, err := ta.app.Test(createMultipartStyleRequest(t, id, token, "image/png", pngBytes(t)), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	style := styleOf(t, production(t, parseJSON(t, resp)))
	if style["source"] != "image" {
		t.Errorf("source = %v", style["source"])
	}
	if style["referenceImage"] == nil {
		t.Error("expected reference image artifact")
	}

	// A query replaces the image-derived style wholesale
	resp = doAuthRequest(t, ta.app, token, http.MethodPost, "/api/productions/"+id+"/style/query?wait=true", `{"query":"pastel"}`)
	assertStatus(t, resp, http.StatusOK)
	style = styleOf(t, production(t, parseJSON(t, resp)))
	if style["source"] != "query" || style["referenceImage"] != nil {
		t.Errorf("style not replaced: %v", style)
	}
	if ta.artifacts.Count() != 0 {
		t.Errorf("reference image not released: %d artifact(s)", ta.artifacts.Count())
	}
}

func TestStyle_FromImageRejectsNonImage(t *testing.T) {
	ta := setupApp(t)
	id, token := createProduction(t, ta.app, "")

	resp, err := ta.app.Test(createMultipartStyleRequest(t, id, token, "text/plain", []byte("just some text")), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestStyle_Clear(t *testing.T) {
	ta := setupApp(t)
	id, token := createProduction(t, ta.app, "")
	base := "/api/productions/" + id

	resp := doAuthRequest(t, ta.app, token, http.MethodPost, base+"/style/query?wait=true", `{"query":"watercolor"}`)
	assertStatus(t, resp, http.StatusOK)

	resp = doAuthRequest(t, ta.app, token, http.MethodDelete, base+"/style", "")
	assertStatus(t, resp, http.StatusOK)

	style := styleOf(t, parseJSON(t, resp))
	if style["source"] != "none" || style["text"] != "" {
		t.Errorf("style not cleared: %v", style)
	}
}
