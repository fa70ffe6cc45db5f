package provisioning

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/BaSui01/dearvoice/llm/assistant"
	"github.com/BaSui01/dearvoice/llm/speech"
	"github.com/BaSui01/dearvoice/types"
)

// memoryStore 是内存中的 FamilyStore.
type memoryStore struct {
	mu       sync.Mutex
	members  map[string]*types.FamilyMember
	getErr   error
	setErr   error
	setCalls atomic.Int32
}

func newMemoryStore(members ...*types.FamilyMember) *memoryStore {
	s := &memoryStore{members: make(map[string]*types.FamilyMember)}
	for _, m := range members {
		s.members[m.ID] = m
	}
	return s
}

func (s *memoryStore) GetFamilyMember(_ context.Context, id string) (*types.FamilyMember, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[id]
	if !ok {
		return nil, types.NewError(types.ErrNotFound, "family member "+id+" not found").WithHTTPStatus(404)
	}
	cp := *m
	return &cp, nil
}

func (s *memoryStore) SetProvisioned(_ context.Context, id, voiceID, assistantID string) error {
	s.setCalls.Add(1)
	if s.setErr != nil {
		return s.setErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[id]
	if !ok {
		return types.NewError(types.ErrNotFound, "family member "+id+" not found").WithHTTPStatus(404)
	}
	m.VoiceID, m.AssistantID = &voiceID, &assistantID
	return nil
}

func (s *memoryStore) member(id string) types.FamilyMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.members[id]
}

// cloneCall 记录一次克隆调用时临时文件的状态.
type cloneCall struct {
	Path     string
	Filename string
	Enhance  bool
	Content  []byte
}

// fakeVoices 是可编排的 VoiceService.
type fakeVoices struct {
	mu           sync.Mutex
	clones       []cloneCall
	creates      []speech.CreateVoiceRequest
	cloneCount   atomic.Int32
	createCount  atomic.Int32
	cloneFn      func(content []byte) (*speech.CloneResponse, error)
	createFn     func(req *speech.CreateVoiceRequest) (*speech.Voice, error)
	cloneStarted chan struct{}
	cloneGate    chan struct{}
}

func (f *fakeVoices) CloneVoiceFile(_ context.Context, path, filename string, enhance bool) (*speech.CloneResponse, error) {
	f.cloneCount.Add(1)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("clip not readable: %w", err)
	}

	f.mu.Lock()
	f.clones = append(f.clones, cloneCall{Path: path, Filename: filename, Enhance: enhance, Content: content})
	f.mu.Unlock()

	if f.cloneStarted != nil {
		f.cloneStarted <- struct{}{}
	}
	if f.cloneGate != nil {
		<-f.cloneGate
	}

	if f.cloneFn != nil {
		return f.cloneFn(content)
	}
	return &speech.CloneResponse{Embedding: []float64{0.1, 0.2}}, nil
}

func (f *fakeVoices) CreateVoice(_ context.Context, req *speech.CreateVoiceRequest) (*speech.Voice, error) {
	f.createCount.Add(1)
	f.mu.Lock()
	f.creates = append(f.creates, *req)
	f.mu.Unlock()

	if f.createFn != nil {
		return f.createFn(req)
	}
	return &speech.Voice{ID: "v1", Name: req.Name}, nil
}

// fakeAssistants 是可编排的 AssistantService.
type fakeAssistants struct {
	mu       sync.Mutex
	requests []assistant.AssistantRequest
	count    atomic.Int32
	createFn func(req *assistant.AssistantRequest) (*assistant.Assistant, error)
}

func (f *fakeAssistants) CreateAssistant(_ context.Context, req *assistant.AssistantRequest) (*assistant.Assistant, error) {
	f.count.Add(1)
	f.mu.Lock()
	f.requests = append(f.requests, *req)
	f.mu.Unlock()

	if f.createFn != nil {
		return f.createFn(req)
	}
	return &assistant.Assistant{ID: "a1", Name: req.Name}, nil
}

// failingLocker 总是返回错误.
type failingLocker struct{ err error }

func (l failingLocker) TryLock(context.Context, string) (func(), bool, error) {
	return nil, false, l.err
}
