package client

import (
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
)

func TestArtifactKey(t *testing.T) {
	got := ArtifactKey("p1", "a1", "scene-2.png")
	if got != "productions/p1/a1/scene-2.png" {
		t.Errorf("key = %s", got)
	}
	if got := ArtifactKey("p1", "a1", "../../narration.wav"); got != "productions/p1/a1/narration.wav" {
		t.Errorf("key escaped its folder: %s", got)
	}
}

func TestR2Client_PutInput(t *testing.T) {
	c := &R2Client{bucket: "media"}
	in := c.putInput(ArtifactKey("p1", "a1", "narration.wav"), strings.NewReader("RIFF"), "audio/wav")

	if aws.ToString(in.Bucket) != "media" || aws.ToString(in.ContentType) != "audio/wav" {
		t.Errorf("input = %+v", in)
	}
	if cd := aws.ToString(in.ContentDisposition); cd != `inline; filename="narration.wav"` {
		t.Errorf("content disposition = %s", cd)
	}
	if !strings.Contains(aws.ToString(in.CacheControl), "immutable") {
		t.Errorf("cache control = %s", aws.ToString(in.CacheControl))
	}
}

func TestR2Client_ObjectURL(t *testing.T) {
	key := ArtifactKey("p1", "a1", "thumbnail.png")

	c := &R2Client{bucket: "media", baseURL: "https://cdn.example.com"}
	if got := c.objectURL(key); got != "https://cdn.example.com/productions/p1/a1/thumbnail.png" {
		t.Errorf("url = %s", got)
	}

	c.baseURL = ""
	if got := c.objectURL(key); got != "https://media.r2.cloudflarestorage.com/productions/p1/a1/thumbnail.png" {
		t.Errorf("fallback url = %s", got)
	}
}
