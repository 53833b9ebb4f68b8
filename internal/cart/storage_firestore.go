package cart

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const firestoreCollection = "carts"

// FirestoreStorage keeps one document per cart in the carts collection.
//
// Document shape: {payload: string, updatedAt: timestamp, expiresAt: timestamp}.
// expiresAt is only written when a ttl is configured and is meant for a
// Firestore TTL policy.
type FirestoreStorage struct {
	client *firestore.Client
	ttl    time.Duration
	now    func() time.Time
}

type cartDoc struct {
	Payload   string     `firestore:"payload"`
	UpdatedAt time.Time  `firestore:"updatedAt"`
	ExpiresAt *time.Time `firestore:"expiresAt,omitempty"`
}

func NewFirestoreStorage(client *firestore.Client, ttl time.Duration) (*FirestoreStorage, error) {
	if client == nil {
		return nil, errors.New("firestore client required")
	}
	return &FirestoreStorage{
		client: client,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (f *FirestoreStorage) Load(ctx context.Context, key string) ([]byte, error) {
	snap, err := f.client.Collection(firestoreCollection).Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	var doc cartDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, errors.Join(ErrMalformedSnapshot, err)
	}
	return []byte(doc.Payload), nil
}

func (f *FirestoreStorage) Save(ctx context.Context, key string, payload []byte) error {
	_, err := f.client.Collection(firestoreCollection).Doc(key).Set(ctx, f.document(payload))
	return err
}

func (f *FirestoreStorage) document(payload []byte) cartDoc {
	now := f.now()
	doc := cartDoc{Payload: string(payload), UpdatedAt: now}
	if f.ttl > 0 {
		expires := now.Add(f.ttl)
		doc.ExpiresAt = &expires
	}
	return doc
}
