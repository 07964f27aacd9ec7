package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"idvmgt/internal/idv/models"
	dErrors "idvmgt/pkg/domain-errors"
	"idvmgt/pkg/platform/sentinel"
)

// Error reasons raised by the document store.
const (
	ReasonCheckingExistence = "IDV-MDS-15000"
	ReasonCheckingData      = "IDV-MDS-15001"
	ReasonProcessing        = "IDV-MDS-15002"
	ReasonAdding            = "IDV-MDS-15003"
	ReasonUpdating          = "IDV-MDS-15004"
	ReasonDeleting          = "IDV-MDS-15005"
	ReasonRetrievingClaim   = "IDV-MDS-15006"
	ReasonRetrievingClaims  = "IDV-MDS-15007"
)

var reasonMessages = map[string]string{
	ReasonCheckingExistence: "Error checking the existence of the Identity Verification Claim.",
	ReasonCheckingData:      "Error checking the existence of the Identity Verification Claim.",
	ReasonProcessing:        "Error getting the Identity Verification Claims.",
	ReasonAdding:            "Error adding the Identity Verification Claims.",
	ReasonUpdating:          "Error updating the Identity Verification Claim.",
	ReasonDeleting:          "Error deleting the Identity Verification Claim.",
	ReasonRetrievingClaim:   "Error retrieving the Identity Verification Claim.",
	ReasonRetrievingClaims:  "Error retrieving the Identity Verification Claims.",
}

func storeError(reason string, err error) error {
	msg := reasonMessages[reason]
	return dErrors.Catalogued(dErrors.CodeInternal, reason, msg, "%s", msg).WithCause(err)
}

const (
	fieldTenantID   = "tenantId"
	fieldUUID       = "uuid"
	fieldUserID     = "userId"
	fieldClaimURI   = "claimUri"
	fieldProviderID = "idVPId"
	fieldStatus     = "status"
	fieldMetadata   = "metadata"
)

type claimDocument struct {
	UUID       string `bson:"uuid"`
	UserID     string `bson:"userId"`
	ClaimURI   string `bson:"claimUri"`
	ProviderID string `bson:"idVPId"`
	TenantID   int    `bson:"tenantId"`
	Status     bool   `bson:"status"`
	Metadata   bson.M `bson:"metadata,omitempty"`
}

func toDocument(tenantID int, c *models.Claim) claimDocument {
	doc := claimDocument{
		UUID:       c.UUID,
		UserID:     c.UserID,
		ClaimURI:   c.ClaimURI,
		ProviderID: c.ProviderID,
		TenantID:   tenantID,
		Status:     c.IsVerified,
	}
	if c.Metadata != nil {
		doc.Metadata = bson.M(c.Metadata)
	}
	return doc
}

func (d claimDocument) toModel() *models.Claim {
	c := &models.Claim{
		UUID:       d.UUID,
		UserID:     d.UserID,
		ClaimURI:   d.ClaimURI,
		ProviderID: d.ProviderID,
		IsVerified: d.Status,
	}
	if d.Metadata != nil {
		c.Metadata = normalize(d.Metadata).(map[string]any)
	}
	return c
}

// normalize turns decoded bson documents and arrays into plain maps and slices.
func normalize(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[string]any:
		return normalize(bson.M(t))
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

// MongoStore keeps one document per claim in a single collection.
type MongoStore struct {
	coll *mongo.Collection
}

func New(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// EnsureIndexes creates the lookup indexes used by the store.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: fieldTenantID, Value: 1}, {Key: fieldUUID, Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: fieldTenantID, Value: 1}, {Key: fieldUserID, Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create claim indexes: %w", err)
	}
	return nil
}

// inTransaction runs fn in a session transaction.
func (s *MongoStore) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.coll.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

func (s *MongoStore) insert(ctx context.Context, tenantID int, claims []*models.Claim) error {
	if len(claims) == 0 {
		return nil
	}
	docs := make([]claimDocument, 0, len(claims))
	for _, c := range claims {
		docs = append(docs, toDocument(tenantID, c))
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return sentinel.ErrConflict
		}
		return err
	}
	return nil
}

func (s *MongoStore) Add(ctx context.Context, tenantID int, claims []*models.Claim) error {
	err := s.inTransaction(ctx, func(ctx context.Context) error {
		return s.insert(ctx, tenantID, claims)
	})
	if err != nil && !errors.Is(err, sentinel.ErrConflict) {
		return storeError(ReasonAdding, err)
	}
	return err
}

func (s *MongoStore) Replace(ctx context.Context, tenantID int, userID string, claims []*models.Claim) error {
	err := s.inTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.coll.DeleteMany(ctx, bson.D{
			{Key: fieldTenantID, Value: tenantID},
			{Key: fieldUserID, Value: userID},
		}); err != nil {
			return err
		}
		return s.insert(ctx, tenantID, claims)
	})
	if err != nil && !errors.Is(err, sentinel.ErrConflict) {
		return storeError(ReasonUpdating, err)
	}
	return err
}

func (s *MongoStore) Update(ctx context.Context, tenantID int, claim *models.Claim) error {
	set := bson.D{{Key: fieldStatus, Value: claim.IsVerified}}
	if claim.Metadata != nil {
		set = append(set, bson.E{Key: fieldMetadata, Value: bson.M(claim.Metadata)})
	}
	res, err := s.coll.UpdateOne(ctx, bson.D{
		{Key: fieldTenantID, Value: tenantID},
		{Key: fieldUserID, Value: claim.UserID},
		{Key: fieldUUID, Value: claim.UUID},
	}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return storeError(ReasonUpdating, err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, tenantID int, userID, claimID string) (*models.Claim, error) {
	return s.findOne(ctx, bson.D{
		{Key: fieldTenantID, Value: tenantID},
		{Key: fieldUserID, Value: userID},
		{Key: fieldUUID, Value: claimID},
	})
}

func (s *MongoStore) GetByURI(ctx context.Context, tenantID int, userID, claimURI, providerID string) (*models.Claim, error) {
	filter := bson.D{
		{Key: fieldTenantID, Value: tenantID},
		{Key: fieldUserID, Value: userID},
		{Key: fieldClaimURI, Value: claimURI},
	}
	if providerID != "" {
		filter = append(filter, bson.E{Key: fieldProviderID, Value: providerID})
	}
	return s.findOne(ctx, filter)
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.D) (*models.Claim, error) {
	var doc claimDocument
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, storeError(ReasonRetrievingClaim, err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) List(ctx context.Context, tenantID int, userID, providerID string) ([]*models.Claim, error) {
	filter := bson.D{
		{Key: fieldTenantID, Value: tenantID},
		{Key: fieldUserID, Value: userID},
	}
	if providerID != "" {
		filter = append(filter, bson.E{Key: fieldProviderID, Value: providerID})
	}
	return s.find(ctx, filter)
}

func (s *MongoStore) ListByMetadata(ctx context.Context, tenantID int, key, value, providerID string) ([]*models.Claim, error) {
	filter := bson.D{
		{Key: fieldTenantID, Value: tenantID},
		{Key: fieldMetadata + "." + key, Value: value},
	}
	if providerID != "" {
		filter = append(filter, bson.E{Key: fieldProviderID, Value: providerID})
	}
	return s.find(ctx, filter)
}

func (s *MongoStore) find(ctx context.Context, filter bson.D) ([]*models.Claim, error) {
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, storeError(ReasonRetrievingClaims, err)
	}
	var docs []claimDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeError(ReasonProcessing, err)
	}
	out := make([]*models.Claim, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, tenantID int, userID, claimID string) error {
	return s.deleteMany(ctx, bson.D{
		{Key: fieldTenantID, Value: tenantID},
		{Key: fieldUserID, Value: userID},
		{Key: fieldUUID, Value: claimID},
	})
}

func (s *MongoStore) DeleteByUser(ctx context.Context, tenantID int, userID string) error {
	return s.deleteMany(ctx, bson.D{
		{Key: fieldTenantID, Value: tenantID},
		{Key: fieldUserID, Value: userID},
	})
}

func (s *MongoStore) DeleteByURI(ctx context.Context, tenantID int, userID, providerID, claimURI string) error {
	filter := bson.D{
		{Key: fieldTenantID, Value: tenantID},
		{Key: fieldUserID, Value: userID},
	}
	if providerID != "" {
		filter = append(filter, bson.E{Key: fieldProviderID, Value: providerID})
	}
	if claimURI != "" {
		filter = append(filter, bson.E{Key: fieldClaimURI, Value: claimURI})
	}
	return s.deleteMany(ctx, filter)
}

func (s *MongoStore) deleteMany(ctx context.Context, filter bson.D) error {
	if _, err := s.coll.DeleteMany(ctx, filter); err != nil {
		return storeError(ReasonDeleting, err)
	}
	return nil
}

func (s *MongoStore) Exists(ctx context.Context, tenantID int, key models.ClaimKey) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{
		{Key: fieldTenantID, Value: tenantID},
		{Key: fieldUserID, Value: key.UserID},
		{Key: fieldProviderID, Value: key.ProviderID},
		{Key: fieldClaimURI, Value: key.ClaimURI},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, storeError(ReasonCheckingData, err)
	}
	return n > 0, nil
}

func (s *MongoStore) ExistsByID(ctx context.Context, tenantID int, claimID string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{
		{Key: fieldTenantID, Value: tenantID},
		{Key: fieldUUID, Value: claimID},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, storeError(ReasonCheckingExistence, err)
	}
	return n > 0, nil
}
