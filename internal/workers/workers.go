package workers

import (
	"context"
	"log"
	"time"

	"sladeshProAPI/internal/store"
	"sladeshProAPI/internal/types/comment"
	"sladeshProAPI/internal/types/notification"
	"sladeshProAPI/internal/types/sladesh"
	"sladeshProAPI/internal/types/user"
)

// DayResetter is the per-user unit the nightly job applies; the check-in
// ledger implements it.
type DayResetter interface {
	ResetForNewDay(ctx context.Context, uid string) error
}

// StartMaintenanceWorker runs the nightly cleanup at 10:00 Copenhagen time:
// every user's drinks, check-in state and location are reset, sladesh
// mirrors are purged, and comments and notifications older than the start of
// the day are deleted. Per-user failures are logged and skipped.
func StartMaintenanceWorker(docStore store.DocumentStore, resetter DayResetter) {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		log.Printf("Maintenance worker: failed to load timezone, falling back to UTC: %v", err)
		loc = time.UTC
	}

	go func() {
		for {
			time.Sleep(untilNextRun(time.Now().In(loc)))
			runMaintenance(docStore, resetter, loc)
		}
	}()
}

func untilNextRun(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), 10, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

func runMaintenance(docStore store.DocumentStore, resetter DayResetter, loc *time.Location) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Println("Maintenance worker: starting nightly reset...")

	users, err := docStore.Query(ctx, user.Collection, store.QueryOptions{})
	if err != nil {
		log.Printf("Maintenance worker: failed to list users: %v", err)
		return
	}

	for i := range users {
		uid := users[i].ID
		if err := resetter.ResetForNewDay(ctx, uid); err != nil {
			log.Printf("Maintenance worker: reset failed for %s: %v", uid, err)
		}
		purgeSubcollection(ctx, docStore, sladesh.ReceivedPath(uid))
		purgeSubcollection(ctx, docStore, sladesh.SentPath(uid))
	}

	now := time.Now().In(loc)
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	purgeOlderThan(ctx, docStore, comment.Collection, startOfDay)
	purgeOlderThan(ctx, docStore, notification.Collection, startOfDay)

	log.Println("Maintenance worker: nightly reset complete")
}

func purgeSubcollection(ctx context.Context, docStore store.DocumentStore, path string) {
	docs, err := docStore.Query(ctx, path, store.QueryOptions{})
	if err != nil {
		log.Printf("Maintenance worker: failed to list %s: %v", path, err)
		return
	}
	for i := range docs {
		if err := docStore.Delete(ctx, path, docs[i].ID); err != nil {
			log.Printf("Maintenance worker: failed to delete %s/%s: %v", path, docs[i].ID, err)
		}
	}
}

func purgeOlderThan(ctx context.Context, docStore store.DocumentStore, path string, cutoff time.Time) {
	docs, err := docStore.Query(ctx, path, store.QueryOptions{
		Filters: []store.Filter{{Field: "timestamp", Op: "<", Value: cutoff}},
	})
	if err != nil {
		log.Printf("Maintenance worker: failed to list old documents in %s: %v", path, err)
		return
	}
	for i := range docs {
		if err := docStore.Delete(ctx, path, docs[i].ID); err != nil {
			log.Printf("Maintenance worker: failed to delete %s/%s: %v", path, docs[i].ID, err)
		}
	}
	log.Printf("Maintenance worker: purged %d old documents from %s", len(docs), path)
}
