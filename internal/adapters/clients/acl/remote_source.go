package acl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/quotevault/quotesync/internal/adapters/clients"
	"github.com/quotevault/quotesync/internal/domain"
)

const postsPath = "/posts"

// postDTO is the remote wire representation of a record on the posts API.
// Title carries the quote text and UserID groups records into categories.
type postDTO struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	UserID int    `json:"userId"`
}

// outboundPostDTO is the write-back payload for a locally created quote.
type outboundPostDTO struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int    `json:"userId"`
}

// RemoteSource adapts the posts API to the ports.RemoteSource contract.
// It also acts as a health checker by probing the remote endpoint.
type RemoteSource struct {
	BaseAdapter
}

// NewRemoteSource creates a remote source adapter.
func NewRemoteSource(client *clients.Client, serviceName string) *RemoteSource {
	return &RemoteSource{
		BaseAdapter: NewBaseAdapter(client, serviceName),
	}
}

// Fetch retrieves the remote collection and translates every record to a
// domain quote. Remote records are authoritative, so they come back with
// Synced=true and a prefixed id that cannot collide with local uuids.
func (r *RemoteSource) Fetch(ctx context.Context) ([]domain.Quote, error) {
	body, err := r.Get(ctx, postsPath, "fetch quotes")
	if err != nil {
		return nil, err
	}

	dtos, err := DecodeResponse[[]postDTO](body)
	if err != nil {
		return nil, domain.NewUnavailableError(r.ServiceName(), err.Error())
	}

	return TranslateSlice(*dtos, translatePost)
}

// Push writes unsynced quotes to the remote, one record per request. The
// remote assigns its own ids; local ids are not sent. The first failure
// aborts the batch so the remaining quotes stay unsynced for the next
// cycle.
func (r *RemoteSource) Push(ctx context.Context, quotes []domain.Quote) error {
	for i := range quotes {
		if err := r.pushOne(ctx, &quotes[i]); err != nil {
			return err
		}
	}

	return nil
}

func (r *RemoteSource) pushOne(ctx context.Context, quote *domain.Quote) error {
	payload, err := json.Marshal(outboundPostDTO{
		Title:  quote.Text,
		Body:   quote.Category,
		UserID: 1,
	})
	if err != nil {
		return fmt.Errorf("encoding quote: %w", err)
	}

	body, err := r.Post(ctx, postsPath, bytes.NewReader(payload), "push quote")
	if err != nil {
		return err
	}

	// The remote echoes the created record; we only need the status.
	return body.Close()
}

// Name identifies the checker in health reports.
func (r *RemoteSource) Name() string {
	return r.ServiceName()
}

// Check probes the remote endpoint. Used by the readiness endpoint; a
// failing remote degrades readiness but never crashes the service.
func (r *RemoteSource) Check(ctx context.Context) error {
	body, err := r.Get(ctx, postsPath+"/1", "health probe")
	if err != nil {
		return err
	}

	return body.Close()
}

// translatePost validates a remote record and maps it into the domain.
func translatePost(ext *postDTO) (domain.Quote, error) {
	if err := ValidatePositive(ext.ID, "id"); err != nil {
		return domain.Quote{}, err
	}

	if err := ValidateRequired(ext.Title, "title"); err != nil {
		return domain.Quote{}, err
	}

	return domain.Quote{
		ID:       fmt.Sprintf("%s%d", domain.RemoteIDPrefix, ext.ID),
		Text:     ext.Title,
		Category: fmt.Sprintf("Server-%d", ext.UserID),
		Synced:   true,
	}, nil
}
