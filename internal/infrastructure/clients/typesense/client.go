package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/epiwatch/surveillance/pkg/config"
	"github.com/epiwatch/surveillance/pkg/retry"
)

const (
	// PatientsCollection is the analyst-facing patient search index
	PatientsCollection = "patients"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	retryConfig := retry.DefaultConfig()
	err := retry.DoWithLog(
		context.Background(),
		retryConfig,
		"Typesense",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("next_delay", nextDelay).
				Msg("Typesense connection attempt failed, retrying")
		},
	)

	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Msg("Successfully connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// InitSchema ensures the patients collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == PatientsCollection {
			log.Debug().Msg("Typesense collection 'patients' already exists")
			return nil
		}
	}

	schema := &api.CollectionSchema{
		Name: PatientsCollection,
		Fields: []api.Field{
			{
				Name: "id",
				Type: "string",
			},
			{
				Name: "mrn",
				Type: "string",
			},
			{
				Name: "full_name",
				Type: "string",
			},
			{
				Name:  "first_name",
				Type:  "string",
				Index: pointer.False(),
			},
			{
				Name:  "last_name",
				Type:  "string",
				Index: pointer.False(),
			},
			{
				Name:  "gender",
				Type:  "string",
				Facet: pointer.True(),
			},
			{
				Name:     "ethnicity",
				Type:     "string",
				Facet:    pointer.True(),
				Optional: pointer.True(),
			},
			{
				Name:     "race",
				Type:     "string",
				Facet:    pointer.True(),
				Optional: pointer.True(),
			},
			{
				Name: "date_of_birth",
				Type: "int64",
			},
			{
				Name:  "is_deceased",
				Type:  "bool",
				Facet: pointer.True(),
			},
			{
				Name: "created_at",
				Type: "int64",
			},
		},
		DefaultSortingField: pointer.String("created_at"),
	}

	_, err = c.client.Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Msg("Created Typesense collection 'patients'")
	return nil
}

// UpsertPatient indexes a patient document
func (c *Client) UpsertPatient(ctx context.Context, document map[string]interface{}) error {
	_, err := c.client.Collection(PatientsCollection).Documents().Upsert(ctx, document)
	return err
}

// DeletePatient removes a patient document
func (c *Client) DeletePatient(ctx context.Context, id string) error {
	_, err := c.client.Collection(PatientsCollection).Document(id).Delete(ctx)
	return err
}
