package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/visionforge/api/internal/client"
	"github.com/visionforge/api/internal/model"
)

var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrSessionClosed    = errors.New("production was closed")
)

type storedArtifact struct {
	meta      model.Artifact
	data      []byte
	sessionID string
	key       string // object key when mirrored
}

// ArtifactService keeps generated bytes in memory for the life of a session and
// optionally mirrors them to object storage.
type ArtifactService struct {
	mu        sync.RWMutex
	items     map[string]*storedArtifact
	bySession map[string]map[string]struct{}
	closed    map[string]struct{}
	storage   client.StorageClient
	publicURL string
}

// NewArtifactService creates the store. storage may be nil; publicURL prefixes
// the local download links.
func NewArtifactService(storage client.StorageClient, publicURL string) *ArtifactService {
	return &ArtifactService{
		items:     make(map[string]*storedArtifact),
		bySession: make(map[string]map[string]struct{}),
		closed:    make(map[string]struct{}),
		storage:   storage,
		publicURL: publicURL,
	}
}

// Save stores data under a new ID. The mirror upload is best effort: a failure
// is logged and the local link is used. Saving for a dropped session returns
// ErrSessionClosed and keeps nothing.
func (s *ArtifactService) Save(ctx context.Context, sessionID, name string, data []byte, mimeType string) (model.Artifact, error) {
	if len(data) == 0 {
		return model.Artifact{}, fmt.Errorf("empty artifact %s", name)
	}
	if s.isClosed(sessionID) {
		return model.Artifact{}, ErrSessionClosed
	}

	id := uuid.New().String()
	filename := name + extensionFor(mimeType)
	meta := model.Artifact{
		ID:        id,
		URL:       fmt.Sprintf("%s/artifacts/%s", s.publicURL, id),
		MIMEType:  mimeType,
		Filename:  filename,
		Size:      len(data),
		CreatedAt: time.Now(),
	}
	item := &storedArtifact{meta: meta, data: data, sessionID: sessionID}

	if s.storage != nil {
		key := client.ArtifactKey(sessionID, id, filename)
		url, err := s.storage.Upload(ctx, key, bytes.NewReader(data), mimeType)
		if err != nil {
			log.Printf("[Artifacts] mirror upload failed for %s: %v", key, err)
		} else {
			item.key = key
			item.meta.URL = url
		}
	}

	s.mu.Lock()
	if _, closed := s.closed[sessionID]; closed {
		s.mu.Unlock()
		s.deleteMirror(item)
		return model.Artifact{}, ErrSessionClosed
	}
	s.items[id] = item
	if s.bySession[sessionID] == nil {
		s.bySession[sessionID] = make(map[string]struct{})
	}
	s.bySession[sessionID][id] = struct{}{}
	s.mu.Unlock()

	return item.meta, nil
}

// Load returns the artifact metadata and bytes.
func (s *ArtifactService) Load(id string) (model.Artifact, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return model.Artifact{}, nil, ErrArtifactNotFound
	}
	return item.meta, item.data, nil
}

// Release drops one artifact, typically after it was replaced.
func (s *ArtifactService) Release(id string) {
	s.mu.Lock()
	item, ok := s.items[id]
	if ok {
		delete(s.items, id)
		delete(s.bySession[item.sessionID], id)
	}
	s.mu.Unlock()

	if ok {
		s.deleteMirror(item)
	}
}

// DropSession releases everything a session produced. Later saves for the
// session are refused.
func (s *ArtifactService) DropSession(sessionID string) {
	s.mu.Lock()
	s.closed[sessionID] = struct{}{}
	var dropped []*storedArtifact
	for id := range s.bySession[sessionID] {
		dropped = append(dropped, s.items[id])
		delete(s.items, id)
	}
	delete(s.bySession, sessionID)
	s.mu.Unlock()

	for _, item := range dropped {
		s.deleteMirror(item)
	}
	if len(dropped) > 0 {
		log.Printf("[Artifacts] released %d artifact(s) of production %s", len(dropped), sessionID)
	}
}

func (s *ArtifactService) isClosed(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.closed[sessionID]
	return ok
}

// Count returns the number of artifacts held in memory.
func (s *ArtifactService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Mirrored reports whether artifacts are copied to object storage.
func (s *ArtifactService) Mirrored() bool {
	return s.storage != nil
}

func (s *ArtifactService) deleteMirror(item *storedArtifact) {
	if s.storage == nil || item == nil || item.key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.storage.Delete(ctx, item.key); err != nil {
		log.Printf("[Artifacts] mirror delete failed for %s: %v", item.key, err)
	}
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "audio/wav":
		return ".wav"
	default:
		return ".bin"
	}
}
