/*
scheduler.go - Holiday feed sync scheduler

PURPOSE:
  Periodically downloads the configured ICS holiday feeds and writes their
  days into the target calendars as system events. System events occupy
  their day, so the replication engine never places an event on a holiday
  that arrived through a feed.

DESIGN:
  - robfig/cron drives the schedule (standard 5-field expression)
  - Each feed is fetched with conditional requests (ics.Fetcher)
  - Occurrences are expanded within the calendar range
  - Event ids are deterministic (feed-<uid>-<date>), so a re-sync updates
    in place instead of duplicating
  - One sync at a time; a manual SyncNow waits for a running one

CONFIGURATION:
  - Schedule: cron expression (default: daily at 03:00)
  - Feeds: calendar id, URL, category id (default: study holiday category)

USAGE:
  scheduler := NewFeedScheduler(store, ics.NewFetcher(0), feeds, "0 3 * * *")
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: SyncFeeds endpoint (manual sync)
  - ics/fetch.go: Conditional HTTP fetch with cache
*/
package api

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/itrascastro/itrascastro.github.io-sub001/calendar"
	"github.com/itrascastro/itrascastro.github.io-sub001/ics"
	"github.com/itrascastro/itrascastro.github.io-sub001/study"
)

// Feed binds an ICS URL to the calendar it feeds.
type Feed struct {
	CalendarID calendar.CalendarID
	URL        string
	CategoryID calendar.CategoryID
	Name       string
}

// SyncReport summarizes one sync pass.
type SyncReport struct {
	Feeds  int
	Events int
	Errors []string
}

// FeedScheduler syncs holiday feeds on a cron schedule.
type FeedScheduler struct {
	Store    calendar.Store
	Fetcher  *ics.Fetcher
	Feeds    []Feed
	Schedule string

	cron   *cron.Cron
	syncMu sync.Mutex
	mu     sync.Mutex
}

// NewFeedScheduler creates a new scheduler.
func NewFeedScheduler(store calendar.Store, fetcher *ics.Fetcher, feeds []Feed, schedule string) *FeedScheduler {
	return &FeedScheduler{
		Store:    store,
		Fetcher:  fetcher,
		Feeds:    feeds,
		Schedule: schedule,
	}
}

// Start registers the sync job and starts the cron runner. With no feeds
// configured it does nothing.
func (fs *FeedScheduler) Start() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if len(fs.Feeds) == 0 {
		log.Println("[Feeds] No feeds configured, not starting")
		return nil
	}
	if fs.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(fs.Schedule, func() {
		fs.SyncNow(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid feed schedule %q: %w", fs.Schedule, err)
	}
	c.Start()
	fs.cron = c

	log.Printf("[Feeds] Started with schedule %q for %d feeds", fs.Schedule, len(fs.Feeds))
	return nil
}

// Stop stops the cron runner and waits for a running sync to finish.
func (fs *FeedScheduler) Stop() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.cron != nil {
		<-fs.cron.Stop().Done()
		fs.cron = nil
		log.Println("[Feeds] Stopped")
	}
}

// SyncNow fetches every feed and upserts its occurrences. A failing feed is
// reported and does not stop the others.
func (fs *FeedScheduler) SyncNow(ctx context.Context) SyncReport {
	fs.syncMu.Lock()
	defer fs.syncMu.Unlock()

	report := SyncReport{Feeds: len(fs.Feeds)}
	for _, feed := range fs.Feeds {
		n, err := fs.syncFeed(ctx, feed)
		if err != nil {
			log.Printf("[Feeds] Error syncing %s into %s: %v", feed.Name, feed.CalendarID, err)
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", feed.CalendarID, err))
			continue
		}
		report.Events += n
	}

	log.Printf("[Feeds] Sync complete: %d feeds, %d events, %d errors", report.Feeds, report.Events, len(report.Errors))
	return report
}

func (fs *FeedScheduler) syncFeed(ctx context.Context, feed Feed) (int, error) {
	cal, err := fs.Store.GetCalendar(ctx, feed.CalendarID)
	if err != nil {
		return 0, err
	}

	res, err := fs.Fetcher.FetchOne(ctx, ics.Source{ID: string(feed.CalendarID), URL: feed.URL})
	if err != nil {
		return 0, err
	}
	parsed, err := ics.Parse(res.Body)
	if err != nil {
		return 0, fmt.Errorf("parse feed: %w", err)
	}

	categoryID := feed.CategoryID
	if categoryID == "" {
		categoryID = study.CategoryHoliday
	}
	if err := fs.ensureCategory(ctx, *cal, categoryID, feed.Name); err != nil {
		return 0, err
	}

	expanded := ics.Expand(parsed, cal.Range, 0)
	events := ics.ToEvents(*cal, expanded.Occurrences, ics.ImportOptions{
		CategoryID: categoryID,
		System:     true,
		IDPrefix:   "feed-",
	})
	if len(events) == 0 {
		return 0, nil
	}
	if err := fs.Store.SaveEvents(ctx, events); err != nil {
		return 0, fmt.Errorf("save feed events: %w", err)
	}
	return len(events), nil
}

// ensureCategory creates the feed's system category on calendars that do
// not carry it (generic calendars).
func (fs *FeedScheduler) ensureCategory(ctx context.Context, cal calendar.Calendar, id calendar.CategoryID, name string) error {
	_, err := fs.Store.GetCategory(ctx, cal.ID, id)
	if err == nil || !calendar.IsNotFound(err) {
		return err
	}
	if name == "" {
		name = "Festiu"
	}
	return fs.Store.SaveCategory(ctx, calendar.Category{
		ID:         id,
		CalendarID: cal.ID,
		Name:       name,
		Color:      "#d32f2f",
		IsSystem:   true,
	})
}
