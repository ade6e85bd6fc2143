package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore backs DocumentStore with Cloud Firestore, the hosted
// document database the mobile client was originally built against.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore initializes the Firestore client. Credentials come from
// the FIREBASE_SERVICE_ACCOUNT_JSON environment variable (Base64 encoded)
// with a fallback to a local service account key file.
func NewFirestoreStore(ctx context.Context, localFilePath string) (*FirestoreStore, error) {
	var opt option.ClientOption

	encodedCreds := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if encodedCreds != "" {
		decoded, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 firebase credentials from FIREBASE_SERVICE_ACCOUNT_JSON: %v", err)
		}
		opt = option.WithCredentialsJSON(decoded)
		log.Println("Firestore: Initializing from FIREBASE_SERVICE_ACCOUNT_JSON environment variable.")
	} else {
		if _, err := os.Stat(localFilePath); os.IsNotExist(err) {
			return nil, fmt.Errorf("local firebase file not found: %s, and FIREBASE_SERVICE_ACCOUNT_JSON environment variable is not set", localFilePath)
		}
		opt = option.WithCredentialsFile(localFilePath)
		log.Printf("Firestore: Initializing from local file: %s.", localFilePath)
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %v", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firestore client: %v", err)
	}

	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) Get(ctx context.Context, path, id string) (*Document, error) {
	snap, err := s.client.Collection(path).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapFirestoreErr(err)
	}
	return &Document{ID: snap.Ref.ID, Fields: snap.Data()}, nil
}

func (s *FirestoreStore) Put(ctx context.Context, path, id string, fields map[string]any) error {
	if _, err := s.client.Collection(path).Doc(id).Set(ctx, fields); err != nil {
		return mapFirestoreErr(err)
	}
	return nil
}

func (s *FirestoreStore) Update(ctx context.Context, path, id string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	if _, err := s.client.Collection(path).Doc(id).Update(ctx, updates); err != nil {
		return mapFirestoreErr(err)
	}
	return nil
}

func (s *FirestoreStore) Query(ctx context.Context, path string, opts QueryOptions) ([]Document, error) {
	q := s.client.Collection(path).Query
	for _, f := range opts.Filters {
		q = q.Where(f.Field, f.Op, f.Value)
	}
	if opts.OrderBy != "" {
		dir := firestore.Asc
		if opts.Desc {
			dir = firestore.Desc
		}
		q = q.OrderBy(opts.OrderBy, dir)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var results []Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, mapFirestoreErr(err)
		}
		results = append(results, Document{ID: snap.Ref.ID, Fields: snap.Data()})
	}
	return results, nil
}

func (s *FirestoreStore) Delete(ctx context.Context, path, id string) error {
	if _, err := s.client.Collection(path).Doc(id).Delete(ctx); err != nil {
		return mapFirestoreErr(err)
	}
	return nil
}

func mapFirestoreErr(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return ErrNotFound
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}
