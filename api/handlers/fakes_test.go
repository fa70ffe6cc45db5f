package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/BaSui01/dearvoice/llm/assistant"
	"github.com/BaSui01/dearvoice/llm/speech"
	"github.com/BaSui01/dearvoice/memory"
	"github.com/BaSui01/dearvoice/provisioning"
	"github.com/BaSui01/dearvoice/types"
)

// =============================================================================
// 🧪 测试桩
// =============================================================================

type fakeFamilyStore struct {
	mu        sync.Mutex
	members   []*types.FamilyMember
	insertErr error
	listErr   error
}

func (s *fakeFamilyStore) InsertFamilyMember(_ context.Context, m *types.FamilyMember) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return "", s.insertErr
	}
	m.ID = "f" + string(rune('1'+len(s.members)))
	s.members = append(s.members, m)
	return m.ID, nil
}

func (s *fakeFamilyStore) ListFamilyMembers(_ context.Context, patientID string) ([]types.FamilyMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []types.FamilyMember
	for _, m := range s.members {
		if m.PatientID == patientID {
			c := *m
			c.Audio = nil
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeProvisioner struct {
	calls []string
	res   *provisioning.Result
	err   error
}

func (p *fakeProvisioner) Provision(_ context.Context, id string) (*provisioning.Result, error) {
	p.calls = append(p.calls, id)
	if p.err != nil {
		return nil, p.err
	}
	res := *p.res
	res.FamilyMemberID = id
	return &res, nil
}

type fakeRecordStore struct {
	records map[string]types.Record
	err     error
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{records: make(map[string]types.Record)}
}

func (s *fakeRecordStore) insert(kind string, rec types.Record) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	id := kind + "-1"
	s.records[id] = rec
	return id, nil
}

func (s *fakeRecordStore) get(kind, id string) (types.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, types.NewError(types.ErrNotFound, kind+" "+id+" not found").WithHTTPStatus(404)
	}
	return rec, nil
}

func (s *fakeRecordStore) InsertPatient(_ context.Context, rec types.Record) (string, error) {
	return s.insert("patient", rec)
}

func (s *fakeRecordStore) GetPatient(_ context.Context, id string) (types.Record, error) {
	return s.get("patient", id)
}

func (s *fakeRecordStore) InsertUser(_ context.Context, rec types.Record) (string, error) {
	return s.insert("user", rec)
}

func (s *fakeRecordStore) GetUser(_ context.Context, id string) (types.Record, error) {
	return s.get("user", id)
}

type fakeVoiceAPI struct {
	lastClone  *speech.CloneRequest
	clip       []byte
	lastCreate *speech.CreateVoiceRequest
	cloneErr   error
	createErr  error
}

func (v *fakeVoiceAPI) CloneVoice(_ context.Context, req *speech.CloneRequest) (*speech.CloneResponse, error) {
	v.lastClone = req
	v.clip, _ = io.ReadAll(req.Clip)
	if v.cloneErr != nil {
		return nil, v.cloneErr
	}
	return &speech.CloneResponse{Embedding: []float64{0.1, 0.2}}, nil
}

func (v *fakeVoiceAPI) CreateVoice(_ context.Context, req *speech.CreateVoiceRequest) (*speech.Voice, error) {
	v.lastCreate = req
	if v.createErr != nil {
		return nil, v.createErr
	}
	return &speech.Voice{ID: "v1", Name: req.Name, Language: req.Language}, nil
}

type fakeAssistantAPI struct {
	lastCreate *assistant.AssistantRequest
	lastCall   *assistant.ConversationRequest
	lastGet    string
	lastEnd    string
	err        error
}

func (a *fakeAssistantAPI) CreateAssistant(_ context.Context, req *assistant.AssistantRequest) (*assistant.Assistant, error) {
	a.lastCreate = req
	if a.err != nil {
		return nil, a.err
	}
	raw, _ := json.Marshal(map[string]string{"id": "a1", "name": req.Name})
	return &assistant.Assistant{ID: "a1", Name: req.Name, Raw: raw}, nil
}

func (a *fakeAssistantAPI) GetAssistant(_ context.Context, id string) (*assistant.Assistant, error) {
	a.lastGet = id
	if a.err != nil {
		return nil, a.err
	}
	return &assistant.Assistant{ID: id, Raw: json.RawMessage(`{"id":"` + id + `","name":"Nurse Assistant Hub"}`)}, nil
}

func (a *fakeAssistantAPI) InitiateConversation(_ context.Context, req *assistant.ConversationRequest) (json.RawMessage, error) {
	a.lastCall = req
	if a.err != nil {
		return nil, a.err
	}
	return json.RawMessage(`{"status":"started"}`), nil
}

func (a *fakeAssistantAPI) EndConversation(_ context.Context, id string) (json.RawMessage, error) {
	a.lastEnd = id
	if a.err != nil {
		return nil, a.err
	}
	return json.RawMessage(`{}`), nil
}

type fakeSTT struct {
	text  string
	err   error
	audio []byte
	req   *speech.STTRequest
}

func (s *fakeSTT) Transcribe(_ context.Context, req *speech.STTRequest) (*speech.STTResponse, error) {
	s.req = req
	s.audio, _ = io.ReadAll(req.Audio)
	if s.err != nil {
		return nil, s.err
	}
	return &speech.STTResponse{Provider: "fake-stt", Text: s.text, Language: "en"}, nil
}

func (s *fakeSTT) TranscribeFile(context.Context, string, *speech.STTRequest) (*speech.STTResponse, error) {
	return nil, errors.New("not used")
}

func (s *fakeSTT) Name() string               { return "fake-stt" }
func (s *fakeSTT) SupportedFormats() []string { return []string{"wav"} }

type fakeIngestor struct {
	patientID string
	text      string
	chunks    []memory.Chunk
	err       error
}

func (f *fakeIngestor) Ingest(_ context.Context, patientID, text string) (*memory.Result, error) {
	f.patientID, f.text = patientID, text
	if f.err != nil {
		return nil, f.err
	}
	return &memory.Result{PatientID: patientID, Chunks: 2, Tokens: 7}, nil
}

func (f *fakeIngestor) List(context.Context, string) ([]memory.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}
