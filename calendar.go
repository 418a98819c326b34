package main

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

// calendarFetcher pulls the crew's shared ICS feed. ETag and
// Last-Modified are carried between polls so the usual refresh is a
// cheap 304, and the last good body survives network blips.
type calendarFetcher struct {
	url          string
	client       *http.Client
	etag         string
	lastModified string
	body         []byte
}

func newCalendarFetcher(url string) *calendarFetcher {
	return &calendarFetcher{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (f *calendarFetcher) fetch() ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	if f.etag != "" {
		req.Header.Set("If-None-Match", f.etag)
	}
	if f.lastModified != "" {
		req.Header.Set("If-Modified-Since", f.lastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if len(f.body) > 0 {
			return f.body, nil // stale beats nothing
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		f.etag = resp.Header.Get("ETag")
		f.lastModified = resp.Header.Get("Last-Modified")
		f.body = body
		return body, nil
	case http.StatusNotModified:
		if len(f.body) == 0 {
			return nil, errors.New("calendar: 304 with empty cache")
		}
		return f.body, nil
	default:
		if len(f.body) > 0 {
			return f.body, nil
		}
		return nil, errors.New(resp.Status)
	}
}

// parseAgenda expands the feed's events, recurring ones included, into
// concrete occurrences inside [from, to).
func parseAgenda(body []byte, from, to time.Time) ([]AgendaItem, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var items []AgendaItem
	for _, ve := range cal.Events() {
		summary := "(untitled)"
		if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil && p.Value != "" {
			summary = p.Value
		}
		start, err := ve.GetStartAt()
		if err != nil {
			continue
		}

		var raw string
		if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
			raw = p.Value
		}
		if raw == "" {
			if !start.Before(from) && start.Before(to) {
				items = append(items, AgendaItem{Start: start.In(from.Location()), Title: summary})
			}
			continue
		}

		r, err := rrule.StrToRRule(raw)
		if err != nil {
			log.Printf("calendar: bad RRULE %q: %v", raw, err)
			continue
		}
		r.DTStart(start)

		var set rrule.Set
		set.RRule(r)
		for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
			for _, part := range strings.Split(p.Value, ",") {
				if t, ok := parseICSStamp(part); ok {
					set.ExDate(t.In(start.Location()))
				}
			}
		}

		for _, occ := range set.Between(from.In(start.Location()), to.In(start.Location()), true) {
			items = append(items, AgendaItem{Start: occ.In(from.Location()), Title: summary})
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Start.Before(items[j].Start) })
	return items, nil
}

// parseICSStamp handles the basic EXDATE forms: UTC, local date-time,
// and date-only.
func parseICSStamp(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		return t, err == nil
	}
	if strings.Contains(v, "T") {
		t, err := time.ParseInLocation("20060102T150405", v, time.Local)
		return t, err == nil
	}
	t, err := time.ParseInLocation("20060102", v, time.Local)
	return t, err == nil
}

// nextHang picks the first occurrence after now.
func nextHang(items []AgendaItem, now time.Time) *AgendaItem {
	for _, it := range items {
		if it.Start.After(now) {
			hang := it
			return &hang
		}
	}
	return nil
}

// collect refreshes the agenda snapshot; scheduled on the cron. The
// window runs a week out so the countdown slider has something to
// count down to.
func (f *calendarFetcher) collect() {
	if f.url == "" {
		return
	}
	body, err := f.fetch()
	if err != nil {
		log.Printf("calendar: fetch failed: %v", err)
		return
	}

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	items, err := parseAgenda(body, from, from.AddDate(0, 0, 8))
	if err != nil {
		log.Printf("calendar: parse failed: %v", err)
		return
	}

	next := nextHang(items, now)
	updateData(func(d *DisplayData) {
		d.Agenda = items
		d.NextHang = next
	})
}
