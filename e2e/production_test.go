package e2e

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/visionforge/api/internal/auth"
)

func TestHealth(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/health", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["status"] != "ok" {
		t.Errorf("expected status ok, got %v", result["status"])
	}
}

func TestVoices(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/api/voices", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	voices, _ := parseJSON(t, resp)["voices"].([]interface{})
	if len(voices) != 6 {
		t.Errorf("expected 6 voices, got %d", len(voices))
	}
}

func TestCreateProduction_Defaults(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/api/productions", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusCreated)

	p := production(t, parseJSON(t, resp))
	if p["status"] != "idle" {
		t.Errorf("expected idle, got %v", p["status"])
	}
	if p["aspectRatio"] != "16:9" {
		t.Errorf("expected 16:9 default, got %v", p["aspectRatio"])
	}
	if p["voice"] != "Kore" {
		t.Errorf("expected Kore default, got %v", p["voice"])
	}
	if len(scenesOf(p)) != 0 {
		t.Error("expected no scenes")
	}
}

func TestCreateProduction_WithSettings(t *testing.T) {
	ta := setupApp(t)

	id, token := createProduction(t, ta.app, `{"script":"Hello world.","aspectRatio":"9:16","voice":"Puck"}`)

	resp := doAuthRequest(t, ta.app, token, http.MethodGet, "/api/productions/"+id, "")
	assertStatus(t, resp, http.StatusOK)

	p := parseJSON(t, resp)
	if p["script"] != "Hello world." {
		t.Errorf("script = %v", p["script"])
	}
	if p["aspectRatio"] != "9:16" || p["voice"] != "Puck" {
		t.Errorf("settings not applied: %v %v", p["aspectRatio"], p["voice"])
	}
}

func TestCreateProduction_InvalidAspectRatio(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/api/productions", `{"aspectRatio":"4:3"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)

	result := parseJSON(t, resp)
	errObj, _ := result["error"].(map[string]interface{})
	if errObj["code"] != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %v", errObj["code"])
	}
}

func TestProduction_Auth(t *testing.T) {
	ta := setupApp(t)
	id, _ := createProduction(t, ta.app, "")
	_, otherToken := createProduction(t, ta.app, "")

	resp, _ := doRequest(ta.app, http.MethodGet, "/api/productions/"+id, "", nil)
	assertStatus(t, resp, http.StatusUnauthorized)

	resp, _ = doRequest(ta.app, http.MethodGet, "/api/productions/"+id, "", map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	assertStatus(t, resp, http.StatusUnauthorized)

	resp = doAuthRequest(t, ta.app, otherToken, http.MethodGet, "/api/productions/"+id, "")
	assertStatus(t, resp, http.StatusForbidden)

	wrongSecret, err := auth.IssueSessionToken(id, "some-other-secret", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	resp = doAuthRequest(t, ta.app, wrongSecret, http.MethodGet, "/api/productions/"+id, "")
	assertStatus(t, resp, http.StatusUnauthorized)
}

func TestProduction_TokenInQuery(t *testing.T) {
	ta := setupApp(t)
	id, token := createProduction(t, ta.app, "")

	resp, err := doRequest(ta.app, http.MethodGet, "/api/productions/"+id+"?token="+token, "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
}

func TestProduction_Setters(t *testing.T) {
	ta := setupApp(t)
	id, token := createProduction(t, ta.app, "")
	base := "/api/productions/" + id

	resp := doAuthRequest(t, ta.app, token, http.MethodPut, base+"/script", `{"text":"A new script."}`)
	assertStatus(t, resp, http.StatusOK)
	if p := parseJSON(t, resp); p["script"] != "A new script." {
		t.Errorf("script = %v", p["script"])
	}

	resp = doAuthRequest(t, ta.app, token, http.MethodPut, base+"/aspect-ratio", `{"aspectRatio":"1:1"}`)
	assertStatus(t, resp, http.StatusOK)
	if p := parseJSON(t, resp); p["aspectRatio"] != "1:1" {
		t.Errorf("aspectRatio = %v", p["aspectRatio"])
	}

	resp = doAuthRequest(t, ta.app, token, http.MethodPut, base+"/aspect-ratio", `{"aspectRatio":"21:9"}`)
	assertStatus(t, resp, http.StatusBadRequest)

	resp = doAuthRequest(t, ta.app, token, http.MethodPut, base+"/voice", `{"voice":"Leda"}`)
	assertStatus(t, resp, http.StatusOK)

	resp = doAuthRequest(t, ta.app, token, http.MethodPut, base+"/voice", `{"voice":"Nobody"}`)
	assertStatus(t, resp, http.StatusBadRequest)

	resp = doAuthRequest(t, ta.app, token, http.MethodPut, base+"/refine-instruction", `{"text":"make it punchier"}`)
	assertStatus(t, resp, http.StatusOK)
	if p := parseJSON(t, resp); p["refineInstruction"] != "make it punchier" {
		t.Errorf("refineInstruction = %v", p["refineInstruction"])
	}

	resp = doAuthRequest(t, ta.app, token, http.MethodPut, base+"/script", `not json`)
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestSegment_Wait(t *testing.T) {
	ta := setupApp(t)
	id, token := createProduction(t, ta.app, `{"script":"Hello world."}`)

	resp := doAuthRequest(t, ta.app, token, http.MethodPost, "/api/productions/"+id+"/segment?wait=true", "")
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["accepted"] != false {
		t.Errorf("expected accepted=false for a waited operation")
	}
	p := production(t, result)
	if p["status"] != "producing" {
		t.Errorf("expected producing, got %v", p["status"])
	}
	scenes := scenesOf(p)
	if len(scenes) != 1 {
		t.Fatalf("expected 1 scene, got %d", len(scenes))
	}
	scene := scenes[0].(map[string]interface{})
	if scene["ordinal"] != float64(1) {
		t.Errorf("ordinal = %v", scene["ordinal"])
	}
	if scene["generatedImage"] != nil {
		t.Error("fresh scene should have no image")
	}
}

func TestSegment_Async(t *testing.T) {
	ta := setupApp(t)
	id, token := createProduction(t, ta.app, `{"script":"One. Two. Three."}`)

	resp := doAuthRequest(t, ta.app, token, http.MethodPost, "/api/productions/"+id+"/segment", "")
	assertStatus(t, resp, http.StatusAccepted)
	if result := parseJSON(t, resp); result["accepted"] != true {
		t.Errorf("expected accepted=true")
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp := doAuthRequest(t, ta.app, token, http.MethodGet, "/api/productions/"+id, "")
		p := parseJSON(t, resp)
		if len(scenesOf(p)) == 3 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("segmentation did not settle")
}

func TestSegment_EmptyScript(t *testing.T) {
	ta := setupApp(t)
	id, token := createProduction(t, ta.app, "")

	resp := doAuthRequest(t, ta.app, token, http.MethodPost, "/api/productions/"+id+"/segment?wait=true", "")
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestRefine(t *testing.T) {
	ta := setupApp(t)
	id, token := createProduction(t, ta.app, `{"script":"  Hello world.  "}`)
	base := "/api/productions/" + id

	resp := doAuthRequest(t, ta.app, token, http.MethodPost, base+"/refine?wait=true", "")
	assertStatus(t, resp, http.StatusBadRequest)

	resp = doAuthRequest(t, ta.app, token, http.MethodPost, base+"/refine?wait=true", `{"instruction":"tighten"}`)
	assertStatus(t, resp, http.StatusOK)
	if p := production(t, parseJSON(t, resp)); p["script"] != "Hello world." {
		t.Errorf("script = %q", p["script"])
	}
}

func TestThumbnail_NoImages(t *testing.T) {
	ta := setupApp(t)
	id, token := createProduction(t, ta.app, `{"script":"Hello world."}`)
	base := "/api/productions/" + id

	resp := doAuthRequest(t, ta.app, token, http.MethodPost, base+"/segment?wait=true", "")
	assertStatus(t, resp, http.StatusOK)

	resp = doAuthRequest(t, ta.app, token, http.MethodPost, base+"/thumbnail?wait=true", "")
	assertStatus(t, resp, http.StatusBadRequest)

	resp = doAuthRequest(t, ta.app, token, http.MethodGet, base, "")
	p := parseJSON(t, resp)
	if p["error"] != "Generate at least one scene image first." {
		t.Errorf("expected banner, got %v", p["error"])
	}
	if p["thumbnail"] != nil {
		t.Error("thumbnail should not be set")
	}

	resp = doAuthRequest(t, ta.app, token, http.MethodDelete, base+"/error", "")
	assertStatus(t, resp, http.StatusOK)
	if p := parseJSON(t, resp); p["error"] != nil {
		t.Errorf("banner not dismissed: %v", p["error"])
	}
}

func TestNarration(t *testing.T) {
	ta := setupApp(t)
	id, token := createProduction(t, ta.app, `{"script":"Hello world."}`)

	resp := doAuthRequest(t, ta.app, token, http.MethodPost, "/api/productions/"+id+"/narration?wait=true", "")
	assertStatus(t, resp, http.StatusOK)

	p := production(t, parseJSON(t, resp))
	narration, ok := p["narration"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected narration artifact, got %v", p["narration"])
	}
	if narration["mimeType"] != "audio/wav" {
		t.Errorf("mimeType = %v", narration["mimeType"])
	}

	resp, err := doRequest(ta.app, http.MethodGet, narration["url"].(string), "", nil)
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	body := readBody(t, resp)
	if !strings.HasPrefix(body, "RIFF") || body[8:12] != "WAVE" {
		t.Error("narration is not a WAV file")
	}
}

func TestStoryboard(t *testing.T) {
	ta := setupApp(t)
	id, token := createProduction(t, ta.app, `{"script":"Hello world. Goodbye world."}`)
	base := "/api/productions/" + id

	resp := doAuthRequest(t, ta.app, token, http.MethodPost, base+"/segment?wait=true", "")
	assertStatus(t, resp, http.StatusOK)

	resp = doAuthRequest(t, ta.app, token, http.MethodGet, base+"/storyboard", "")
	assertStatus(t, resp, http.StatusOK)
	sb := parseJSON(t, resp)
	if scenes, _ := sb["scenes"].([]interface{}); len(scenes) != 2 {
		t.Errorf("expected 2 scenes, got %d", len(scenes))
	}

	resp = doAuthRequest(t, ta.app, token, http.MethodGet, base+"/storyboard?format=yaml&download=true", "")
	assertStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "yaml") {
		t.Errorf("content type = %s", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("content disposition = %s", cd)
	}
	body := readBody(t, resp)
	if !strings.Contains(body, "scenes:") || !strings.Contains(body, "viral_score:") {
		t.Errorf("unexpected yaml body:\n%s", body)
	}

	resp = doAuthRequest(t, ta.app, token, http.MethodGet, base+"/storyboard?format=xml", "")
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestDeleteProduction(t *testing.T) {
	ta := setupApp(t)
	id, token := createProduction(t, ta.app, `{"script":"Hello world."}`)
	base := "/api/productions/" + id

	resp := doAuthRequest(t, ta.app, token, http.MethodPost, base+"/narration?wait=true", "")
	assertStatus(t, resp, http.StatusOK)
	if ta.artifacts.Count() != 1 {
		t.Fatalf("expected 1 artifact, got %d", ta.artifacts.Count())
	}

	resp = doAuthRequest(t, ta.app, token, http.MethodDelete, base, "")
	assertStatus(t, resp, http.StatusNoContent)

	if ta.artifacts.Count() != 0 {
		t.Errorf("artifacts not released: %d", ta.artifacts.Count())
	}

	resp = doAuthRequest(t, ta.app, token, http.MethodGet, base, "")
	assertStatus(t, resp, http.StatusNotFound)
}

func TestArtifact_NotFound(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/artifacts/does-not-exist", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	ta := setupApp(t)
	id, token := createProduction(t, ta.app, "")

	resp, err := doRequest(ta.app, http.MethodGet, "/ws/productions/"+id+"?token="+token, "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusUpgradeRequired)
}
