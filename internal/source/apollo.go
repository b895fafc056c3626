package source

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/normalize"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
)

// ApolloSource pages through the Apollo people search API.
type ApolloSource struct {
	client  apollo.Client
	perPage int
}

// NewApolloSource creates an ApolloSource. perPage is clamped by the client
// to the API maximum.
func NewApolloSource(client apollo.Client, perPage int) *ApolloSource {
	if perPage <= 0 {
		perPage = 25
	}
	return &ApolloSource{client: client, perPage: perPage}
}

func (s *ApolloSource) Kind() model.SourceKind {
	return model.SourceApolloAPI
}

func (s *ApolloSource) Fetch(ctx context.Context, profile model.Profile, limit int) ([]model.Lead, error) {
	var leads []model.Lead
	page := 1

	for len(leads) < limit {
		resp, err := s.client.SearchPeople(ctx, profile.Filters, page, s.perPage)
		if err != nil {
			return nil, eris.Wrapf(err, "source: apollo page %d", page)
		}
		if len(resp.People) == 0 {
			zap.L().Info("source: apollo returned no more results", zap.Int("page", page))
			break
		}

		for _, person := range resp.People {
			if len(leads) >= limit {
				break
			}
			// Contacts without an email cannot be keyed or exported.
			if person.Email == "" {
				continue
			}
			leads = append(leads, normalize.FromApolloPerson(person))
		}

		zap.L().Info("source: apollo progress",
			zap.Int("fetched", len(leads)),
			zap.Int("limit", limit),
			zap.Int("page", page),
		)

		if page >= resp.Pagination.TotalPages {
			break
		}
		page++
	}

	return leads, nil
}
