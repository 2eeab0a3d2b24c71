package repositories

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"lojinha/internal/apperrors"
	"lojinha/internal/models"
)

// HTTPCatalogRepository reads products from a remote catalog store exposing
// a PostgREST-style API (Supabase and friends). It is read-only: catalog
// administration happens directly against the store, not through here.
type HTTPCatalogRepository struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPCatalogRepository creates a catalog client for the given endpoint
// and credential.
func NewHTTPCatalogRepository(baseURL, apiKey string) *HTTPCatalogRepository {
	return &HTTPCatalogRepository{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// The remote table uses Portuguese column names.
type catalogRow struct {
	ID           string  `json:"id"`
	Nome         string  `json:"nome"`
	Descricao    string  `json:"descricao"`
	Preco        float64 `json:"preco"`
	LinkDownload string  `json:"link_download"`
	Ativo        bool    `json:"ativo"`
}

func (row catalogRow) toProduct() models.Product {
	return models.Product{
		ID:          row.ID,
		Name:        row.Nome,
		Description: row.Descricao,
		Price:       row.Preco,
		DownloadURL: row.LinkDownload,
		Active:      row.Ativo,
	}
}

// GetAllActive lists every product flagged active in the remote catalog.
func (r *HTTPCatalogRepository) GetAllActive() ([]models.Product, error) {
	rows, err := r.query("ativo=eq.true")
	if err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toProduct())
	}
	return products, nil
}

// GetByID fetches a single product by its identifier.
func (r *HTTPCatalogRepository) GetByID(id string) (*models.Product, error) {
	rows, err := r.query("id=eq." + url.QueryEscape(id))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("product with ID %s not found", id)
	}
	product := rows[0].toProduct()
	return &product, nil
}

func (r *HTTPCatalogRepository) query(filter string) ([]catalogRow, error) {
	req, err := http.NewRequest(http.MethodGet, r.baseURL+"/rest/v1/produtos?select=*&"+filter, nil)
	if err != nil {
		return nil, &apperrors.CatalogError{Err: err}
	}
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		// Connectivity or timeout: the retry helper may try again.
		return nil, &apperrors.CatalogError{Unreachable: true, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &apperrors.CatalogError{Err: fmt.Errorf("catalog rejected credentials (HTTP %d)", resp.StatusCode)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(resp.Body)
		return nil, &apperrors.CatalogError{Unreachable: true, Err: fmt.Errorf("catalog returned HTTP %d: %s", resp.StatusCode, body)}
	}

	var rows []catalogRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, &apperrors.CatalogError{Err: fmt.Errorf("failed to decode catalog response: %w", err)}
	}
	return rows, nil
}

// Create is unsupported: the remote catalog is administered externally.
func (r *HTTPCatalogRepository) Create(*models.Product) error {
	return fmt.Errorf("remote catalog is read-only")
}

// Update is unsupported: the remote catalog is administered externally.
func (r *HTTPCatalogRepository) Update(*models.Product) error {
	return fmt.Errorf("remote catalog is read-only")
}

// Delete is unsupported: the remote catalog is administered externally.
func (r *HTTPCatalogRepository) Delete(string) error {
	return fmt.Errorf("remote catalog is read-only")
}
