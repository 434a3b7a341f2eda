package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/teetime-scheduler/internal/db"
	"github.com/example/teetime-scheduler/internal/domain/user"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	cookieName = "teesched_session"
	sessionTTL = 14 * 24 * time.Hour
)

type Store struct {
	sc    *securecookie.SecureCookie
	users user.Store
}

type ctxKey string

const userIDKey ctxKey = "userID"

func NewStore(users user.Store, hashKey, blockKey []byte) *Store {
	sc := securecookie.New(hashKey, blockKey)
	// keep cookie small and secure
	sc.MaxAge(int(sessionTTL.Seconds()))
	return &Store{sc: sc, users: users}
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func (s *Store) CreateUser(ctx context.Context, username, password string) error {
	if username == "" || len(password) < 8 {
		return errors.New("username is required and password must be at least 8 characters")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	return s.users.Create(ctx, user.User{Username: username, PasswordHash: hash})
}

// Authenticate returns the user id for a valid username/password pair. Unknown
// users and wrong passwords are indistinguishable to the caller.
func (s *Store) Authenticate(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if db.IsNotFound(err) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}
	return u.ID, nil
}

type Session struct {
	UserID string
}

func (s *Store) SetSession(w http.ResponseWriter, r *http.Request, userID string) error {
	val := map[string]string{"uid": userID, "v": "1"}
	encoded, err := s.sc.Encode(cookieName, val)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(sessionTTL.Seconds()),
	})
	return nil
}

func (s *Store) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (s *Store) GetSession(r *http.Request) (Session, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return Session{}, false
	}
	val := map[string]string{}
	if err := s.sc.Decode(cookieName, c.Value, &val); err != nil {
		return Session{}, false
	}
	uid := val["uid"]
	if uid == "" {
		return Session{}, false
	}
	return Session{UserID: uid}, true
}

// RequireAuth rejects requests without a valid session cookie with a JSON 401.
func (s *Store) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.GetSession(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"errors":["authentication required"]}`))
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, sess.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(userIDKey).(string)
	return uid, ok && uid != ""
}
