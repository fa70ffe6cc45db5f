package docstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"github.com/BaSui01/dearvoice/types"
)

// Config MongoDB 文档库配置.
type Config struct {
	URI               string
	Database          string
	FamilyCollection  string
	PatientCollection string
	UserCollection    string
	ConnectTimeout    time.Duration
}

// Store 是患者、家庭成员与用户记录的 MongoDB 存储.
type Store struct {
	client   *mongo.Client
	family   *mongo.Collection
	patients *mongo.Collection
	users    *mongo.Collection
	logger   *zap.Logger
}

// Connect 建立连接并确认主节点可达.
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &Store{
		client:   client,
		family:   db.Collection(cfg.FamilyCollection),
		patients: db.Collection(cfg.PatientCollection),
		users:    db.Collection(cfg.UserCollection),
		logger:   logger.With(zap.String("component", "docstore")),
	}

	s.logger.Info("mongo connected",
		zap.String("database", cfg.Database),
		zap.String("family_collection", cfg.FamilyCollection))

	return s, nil
}

// EnsureIndexes 为按患者查询家庭成员建立索引.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.family.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "patient_id", Value: 1}},
		Options: options.Index().SetName("patient_id_1"),
	})
	if err != nil {
		return fmt.Errorf("create family index: %w", err)
	}
	return nil
}

// Ping 用于就绪检查.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close 断开连接.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// =============================================================================
// 👪 家庭成员
// =============================================================================

// familyDoc 是 family 集合中的文档形态.
type familyDoc struct {
	ID            bson.ObjectID `bson:"_id,omitempty"`
	PatientID     string        `bson:"patient_id"`
	Name          string        `bson:"name"`
	Age           string        `bson:"age"`
	Relation      string        `bson:"relation"`
	Memories      string        `bson:"memories"`
	Language      string        `bson:"language"`
	Audio         []byte        `bson:"audio,omitempty"`
	AudioFilename string        `bson:"audio_filename,omitempty"`
	VoiceID       *string       `bson:"voice_id"`
	AssistantID   *string       `bson:"assistant_id"`
	CreatedAt     time.Time     `bson:"created_at"`
	UpdatedAt     time.Time     `bson:"updated_at"`
}

func toFamilyDoc(m *types.FamilyMember) familyDoc {
	language := m.Language
	if language == "" {
		language = types.DefaultLanguage
	}
	return familyDoc{
		PatientID:     m.PatientID,
		Name:          m.Name,
		Age:           m.Age,
		Relation:      m.Relation,
		Memories:      m.Memories,
		Language:      language,
		Audio:         m.Audio,
		AudioFilename: m.AudioFilename,
		VoiceID:       m.VoiceID,
		AssistantID:   m.AssistantID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func (d familyDoc) toMember() *types.FamilyMember {
	return &types.FamilyMember{
		ID:            d.ID.Hex(),
		PatientID:     d.PatientID,
		Name:          d.Name,
		Age:           d.Age,
		Relation:      d.Relation,
		Memories:      d.Memories,
		Language:      d.Language,
		Audio:         d.Audio,
		AudioFilename: d.AudioFilename,
		VoiceID:       d.VoiceID,
		AssistantID:   d.AssistantID,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// InsertFamilyMember 写入新的家庭成员，ID 由数据库分配.
func (s *Store) InsertFamilyMember(ctx context.Context, m *types.FamilyMember) (string, error) {
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	m.VoiceID, m.AssistantID = nil, nil

	res, err := s.family.InsertOne(ctx, toFamilyDoc(m))
	if err != nil {
		return "", fmt.Errorf("insert family member: %w", err)
	}
	oid, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert family member: unexpected id type %T", res.InsertedID)
	}
	m.ID = oid.Hex()
	return m.ID, nil
}

// GetFamilyMember 读取家庭成员（含音频）.
func (s *Store) GetFamilyMember(ctx context.Context, id string) (*types.FamilyMember, error) {
	oid, err := parseID("family member", id)
	if err != nil {
		return nil, err
	}

	var doc familyDoc
	if err := s.family.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound("family member", id)
		}
		return nil, fmt.Errorf("find family member %s: %w", id, err)
	}
	return doc.toMember(), nil
}

// SetProvisioned 以一次 UpdateOne 同时写入 voice_id 与 assistant_id，并清除已用完的音频.
func (s *Store) SetProvisioned(ctx context.Context, id, voiceID, assistantID string) error {
	oid, err := parseID("family member", id)
	if err != nil {
		return err
	}

	res, err := s.family.UpdateOne(ctx, bson.M{"_id": oid}, provisionedUpdate(voiceID, assistantID, time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("update family member %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return notFound("family member", id)
	}
	return nil
}

// provisionedUpdate 写入两个 ID 并清除音频，克隆完成后不再需要.
func provisionedUpdate(voiceID, assistantID string, now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"voice_id":     voiceID,
			"assistant_id": assistantID,
			"updated_at":   now,
		},
		"$unset": bson.M{"audio": ""},
	}
}

// ListFamilyMembers 按患者列出家庭成员，音频字段通过投影排除.
func (s *Store) ListFamilyMembers(ctx context.Context, patientID string) ([]types.FamilyMember, error) {
	cur, err := s.family.Find(ctx,
		bson.M{"patient_id": patientID},
		options.Find().
			SetProjection(bson.M{"audio": 0}).
			SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find family members for %s: %w", patientID, err)
	}

	var docs []familyDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode family members: %w", err)
	}

	members := make([]types.FamilyMember, 0, len(docs))
	for _, d := range docs {
		members = append(members, *d.toMember())
	}
	return members, nil
}

// =============================================================================
// 📄 患者与用户（原样透传）
// =============================================================================

func (s *Store) InsertPatient(ctx context.Context, rec types.Record) (string, error) {
	return insertRecord(ctx, s.patients, rec)
}

func (s *Store) GetPatient(ctx context.Context, id string) (types.Record, error) {
	return getRecord(ctx, s.patients, "patient", id)
}

func (s *Store) InsertUser(ctx context.Context, rec types.Record) (string, error) {
	return insertRecord(ctx, s.users, rec)
}

func (s *Store) GetUser(ctx context.Context, id string) (types.Record, error) {
	return getRecord(ctx, s.users, "user", id)
}

func insertRecord(ctx context.Context, coll *mongo.Collection, rec types.Record) (string, error) {
	doc := bson.M{}
	for k, v := range rec {
		if k == "_id" || k == "id" {
			continue
		}
		doc[k] = v
	}

	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", coll.Name(), err)
	}
	oid, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert into %s: unexpected id type %T", coll.Name(), res.InsertedID)
	}
	return oid.Hex(), nil
}

func getRecord(ctx context.Context, coll *mongo.Collection, kind, id string) (types.Record, error) {
	oid, err := parseID(kind, id)
	if err != nil {
		return nil, err
	}

	var doc bson.M
	if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound(kind, id)
		}
		return nil, fmt.Errorf("find %s %s: %w", kind, id, err)
	}
	return normalizeRecord(doc), nil
}

// normalizeRecord 把 _id 渲染为十六进制字符串.
func normalizeRecord(doc bson.M) types.Record {
	rec := make(types.Record, len(doc))
	for k, v := range doc {
		if k == "_id" {
			if oid, ok := v.(bson.ObjectID); ok {
				rec[k] = oid.Hex()
				continue
			}
		}
		rec[k] = v
	}
	return rec
}

// parseID 非法 ID 与不存在同样按 404 处理.
func parseID(kind, id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, notFound(kind, id).WithCause(err)
	}
	return oid, nil
}

func notFound(kind, id string) *types.Error {
	return types.NewError(types.ErrNotFound, fmt.Sprintf("%s %s not found", kind, id)).
		WithHTTPStatus(http.StatusNotFound)
}
