package auth

import (
	"context"
	"fmt"

	"github.com/recordmap/recordmap"
)

// userSchema backs SQLStore; registered once at package load.
var userSchema = recordmap.MustRegister[Credentials](recordmap.NewSchema("users").
	Field("id", recordmap.NewField(recordmap.Integer, recordmap.PrimaryKey(), recordmap.NotNull())).
	Field("username", recordmap.NewField(recordmap.Text, recordmap.Unique(), recordmap.NotNull())).
	Field("email", recordmap.NewField(recordmap.Text, recordmap.Unique(), recordmap.NotNull())).
	Field("role", recordmap.NewField(recordmap.Text, recordmap.Default("user"))).
	Field("password_hash", recordmap.NewField(recordmap.Text, recordmap.NotNull())))

// SQLStore reads credentials from a users table through a recordmap manager.
type SQLStore struct {
	Conn *recordmap.Conn
}

// Init materializes the users table.
func (s *SQLStore) Init(ctx context.Context) error {
	mapper, err := recordmap.NewMapper[Credentials](s.Conn)
	if err != nil {
		return err
	}
	return mapper.CreateTable(ctx)
}

// CreateUser hashes the password and persists a new credential record.
func (s *SQLStore) CreateUser(ctx context.Context, user User, password string) (*Credentials, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	mapper, err := recordmap.NewMapper[Credentials](s.Conn)
	if err != nil {
		return nil, err
	}
	creds := &Credentials{User: user, PasswordHash: hash}
	if err := mapper.Save(ctx, creds); err != nil {
		return nil, err
	}
	return creds, nil
}

// FindByUsername implements CredentialStore. Unknown users return (nil, nil).
func (s *SQLStore) FindByUsername(username string) (*Credentials, error) {
	stmt := fmt.Sprintf("SELECT * FROM %s WHERE username = %s",
		userSchema.Table(), s.Conn.Placeholder(1))
	rec, err := s.Conn.FetchOne(context.Background(), stmt, username)
	if err != nil || rec == nil {
		return nil, err
	}

	creds := &Credentials{}
	if id, ok := rec["id"].(int64); ok {
		creds.ID = id
	}
	if v, ok := rec["username"].(string); ok {
		creds.Username = v
	}
	if v, ok := rec["email"].(string); ok {
		creds.Email = v
	}
	if v, ok := rec["role"].(string); ok {
		creds.Role = v
	}
	if v, ok := rec["password_hash"].(string); ok {
		creds.PasswordHash = v
	}
	return creds, nil
}
