package supabase

import (
	"context"
	"net/http"

	"github.com/Integral-ind/integral-backend/internal/app/storage"
	platform "github.com/Integral-ind/integral-backend/internal/platform/supabase"
)

// Directory resolves user emails from the platform's profiles table.
type Directory struct {
	client *platform.Client
}

// NewDirectory creates a Directory over the platform client.
func NewDirectory(client *platform.Client) *Directory {
	return &Directory{client: client}
}

type profileRow struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// EmailFor returns the email address for a user id.
func (d *Directory) EmailFor(ctx context.Context, userID string) (string, error) {
	resp, err := d.client.From("profiles").Select("id,email").Eq("id", userID).Single().Execute(ctx)
	if err != nil {
		return "", err
	}
	// PostgREST answers 406 when a single-row request matches nothing.
	if resp.StatusCode == http.StatusNotAcceptable {
		return "", storage.ErrNotFound
	}
	if err := resp.Error(); err != nil {
		return "", err
	}
	var row profileRow
	if err := resp.JSON(&row); err != nil {
		return "", err
	}
	if row.Email == "" {
		return "", storage.ErrNotFound
	}
	return row.Email, nil
}
