package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clientColumns = `id, user_id, name, cpf, phone, email, cep, street, number,
	complement, neighborhood, city, state, created_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.CPF, &c.Phone, &c.Email, &c.CEP,
		&c.Street, &c.Number, &c.Complement, &c.Neighborhood, &c.City, &c.State, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type ClientInput struct {
	Name         string  `json:"name"`
	CPF          *string `json:"cpf,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	CEP          *string `json:"cep,omitempty"`
	Street       *string `json:"street,omitempty"`
	Number       *string `json:"number,omitempty"`
	Complement   *string `json:"complement,omitempty"`
	Neighborhood *string `json:"neighborhood,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
}

func (in *ClientInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return validationErr("name", "is required")
	}
	return nil
}

// ClientService is the per-user client book. Every operation is scoped to the
// owning user; there is no cross-user visibility.
type ClientService interface {
	Create(ctx context.Context, userID string, in ClientInput) (*Client, error)
	Get(ctx context.Context, clientID, userID string) (*Client, error)
	List(ctx context.Context, userID, search string) ([]Client, error)
	Update(ctx context.Context, clientID, userID string, in ClientInput) (*Client, error)
	Delete(ctx context.Context, clientID, userID string) error
}

type clientService struct {
	pool *pgxpool.Pool
}

func NewClientService(pool *pgxpool.Pool) ClientService {
	return &clientService{pool: pool}
}

func (s *clientService) Create(ctx context.Context, userID string, in ClientInput) (*Client, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	client, err := scanClient(s.pool.QueryRow(ctx, `
		INSERT INTO clients (user_id, name, cpf, phone, email, cep, street, number,
			complement, neighborhood, city, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+clientColumns,
		userID, in.Name, in.CPF, in.Phone, in.Email, in.CEP, in.Street, in.Number,
		in.Complement, in.Neighborhood, in.City, in.State))
	if err != nil {
		return nil, fmt.Errorf("failed to insert client: %w", err)
	}
	return client, nil
}

func (s *clientService) Get(ctx context.Context, clientID, userID string) (*Client, error) {
	client, err := scanClient(s.pool.QueryRow(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE id = $1 AND user_id = $2",
		clientID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("client %s: %w", clientID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch client %s: %w", clientID, err)
	}
	return client, nil
}

func (s *clientService) List(ctx context.Context, userID, search string) ([]Client, error) {
	query := "SELECT " + clientColumns + " FROM clients WHERE user_id = $1"
	args := []any{userID}
	if search = strings.TrimSpace(search); search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" AND (name ILIKE $%d OR cpf ILIKE $%d)", len(args), len(args))
	}
	query += " ORDER BY name"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.CPF, &c.Phone, &c.Email, &c.CEP,
			&c.Street, &c.Number, &c.Complement, &c.Neighborhood, &c.City, &c.State, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *clientService) Update(ctx context.Context, clientID, userID string, in ClientInput) (*Client, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	client, err := scanClient(s.pool.QueryRow(ctx, `
		UPDATE clients SET name = $3, cpf = $4, phone = $5, email = $6, cep = $7,
			street = $8, number = $9, complement = $10, neighborhood = $11,
			city = $12, state = $13
		WHERE id = $1 AND user_id = $2
		RETURNING `+clientColumns,
		clientID, userID, in.Name, in.CPF, in.Phone, in.Email, in.CEP, in.Street,
		in.Number, in.Complement, in.Neighborhood, in.City, in.State))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("client %s: %w", clientID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update client %s: %w", clientID, err)
	}
	return client, nil
}

func (s *clientService) Delete(ctx context.Context, clientID, userID string) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM clients WHERE id = $1 AND user_id = $2", clientID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete client %s: %w", clientID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %s: %w", clientID, ErrNotFound)
	}
	return nil
}
