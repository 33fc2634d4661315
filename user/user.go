// Package user authenticates the two parties of a ledger.
package user

import (
	"errors"
	"fmt"
	"strings"

	"github.com/billbatista/acasinha-ledger/ledger"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid name or password")
	ErrBlankPassword      = errors.New("password can't be blank")
	ErrDuplicateName      = errors.New("both parties can't share a name")
)

// User is one of the two parties able to log in.
type User struct {
	Party        ledger.Party `json:"party"`
	Name         string       `json:"name"`
	PasswordHash string       `json:"-"`
}

// Directory holds both parties. A party without a password hash cannot log in.
type Directory struct {
	users [2]User
}

func NewDirectory(a, b User) (*Directory, error) {
	a.Party, b.Party = ledger.PartyA, ledger.PartyB
	if a.Name != "" && strings.EqualFold(a.Name, b.Name) {
		return nil, ErrDuplicateName
	}
	d := &Directory{users: [2]User{a, b}}
	if err := d.Names().Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Directory) Names() ledger.Names {
	return ledger.Names{A: d.users[ledger.PartyA].Name, B: d.users[ledger.PartyB].Name}
}

func (d *Directory) Get(p ledger.Party) User {
	return d.users[p]
}

// Authenticate matches name against either party and verifies the password.
func (d *Directory) Authenticate(name, password string) (User, error) {
	party, err := d.Names().Payer(name)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}

	u := d.users[party]
	if u.PasswordHash == "" {
		return User{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(u.PasswordHash, password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrBlankPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hashed), nil
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
