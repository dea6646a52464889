package natsadapter

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/samirrijal/meteomcp/internal/core/domain"
)

// Subjects and stream names.
const (
	StreamGeoEvents    = "GEO_EVENTS"
	SubjectResolved    = "geo.resolved"
	SubjectInvalidate  = "geo.cache.invalidate"
	ResolvedWildcard   = SubjectResolved + ".>"
	invalidSubjectRune = "_"
)

// ResolvedSubject returns the subject a resolution of key is published on.
func ResolvedSubject(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r == '.' || r == '*' || r == '>' || r <= ' ' || r == 0x7f:
			b.WriteString(invalidSubjectRune)
		default:
			b.WriteRune(r)
		}
	}
	token := b.String()
	if token == "" {
		token = invalidSubjectRune
	}
	return SubjectResolved + "." + token
}

// EncodeResolved serialises event as a protobuf Struct.
func EncodeResolved(event *domain.ResolvedEvent) ([]byte, error) {
	rec := event.Record
	s, err := structpb.NewStruct(map[string]any{
		"id":          event.ID,
		"query":       event.Query,
		"key":         event.Key,
		"name":        rec.Name,
		"country":     rec.Country,
		"latitude":    rec.Latitude,
		"longitude":   rec.Longitude,
		"timezone":    rec.Timezone,
		"cached_at":   rec.CachedAt.UTC().Format(time.RFC3339Nano),
		"rule":        string(event.Rule),
		"resolved_at": event.ResolvedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("encode resolved event: %w", err)
	}
	return proto.Marshal(s)
}

// DecodeStruct parses a protobuf Struct payload.
func DecodeStruct(data []byte) (*structpb.Struct, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode event payload: %w", err)
	}
	return &s, nil
}

// DecodeResolved is the inverse of EncodeResolved.
func DecodeResolved(data []byte) (*domain.ResolvedEvent, error) {
	s, err := DecodeStruct(data)
	if err != nil {
		return nil, err
	}
	f := s.GetFields()
	event := &domain.ResolvedEvent{
		ID:    f["id"].GetStringValue(),
		Query: f["query"].GetStringValue(),
		Key:   f["key"].GetStringValue(),
		Rule:  domain.ResolutionRule(f["rule"].GetStringValue()),
		Record: domain.LocationRecord{
			Name:      f["name"].GetStringValue(),
			Country:   f["country"].GetStringValue(),
			Latitude:  f["latitude"].GetNumberValue(),
			Longitude: f["longitude"].GetNumberValue(),
			Timezone:  f["timezone"].GetStringValue(),
		},
	}
	if ts := f["cached_at"].GetStringValue(); ts != "" {
		if event.Record.CachedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("decode cached_at: %w", err)
		}
	}
	if ts := f["resolved_at"].GetStringValue(); ts != "" {
		if event.ResolvedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("decode resolved_at: %w", err)
		}
	}
	return event, nil
}

// EncodeInvalidation serialises event as a protobuf Struct.
func EncodeInvalidation(event *domain.InvalidationEvent) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"id":       event.ID,
		"origin":   event.Origin,
		"location": event.Location,
		"all":      event.All,
	})
	if err != nil {
		return nil, fmt.Errorf("encode invalidation event: %w", err)
	}
	return proto.Marshal(s)
}

// DecodeInvalidation is the inverse of EncodeInvalidation.
func DecodeInvalidation(data []byte) (*domain.InvalidationEvent, error) {
	s, err := DecodeStruct(data)
	if err != nil {
		return nil, err
	}
	f := s.GetFields()
	return &domain.InvalidationEvent{
		ID:       f["id"].GetStringValue(),
		Origin:   f["origin"].GetStringValue(),
		Location: f["location"].GetStringValue(),
		All:      f["all"].GetBoolValue(),
	}, nil
}
