package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	errs "instapi/pkg/errors"
	"instapi/pkg/wire"
)

// Device is the installation identity presented to the remote. It must stay
// stable across logins of the same account.
type Device struct {
	UUID     string `json:"uuid"`
	PhoneID  string `json:"phone_id"`
	DeviceID string `json:"device_id"`
}

// NewDevice generates a fresh device identity.
func NewDevice() Device {
	id := uuid.New()
	return Device{
		UUID:     id.String(),
		PhoneID:  uuid.NewString(),
		DeviceID: "android-" + strings.ReplaceAll(id.String(), "-", "")[:16],
	}
}

// Cookie is one persisted session cookie.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Session is the state needed to resume a login without credentials.
type Session struct {
	Username string   `json:"username"`
	UserID   int64    `json:"user_id"`
	Device   Device   `json:"device"`
	Cookies  []Cookie `json:"cookies"`
}

func (c *Client) cookie(name string) string {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// Login authenticates with username and password and records the account
// identity on the client.
func (c *Client) Login(ctx context.Context, username, password string) error {
	c.logger.InfoWithFields("logging in", map[string]interface{}{"username": username})

	c.mu.RLock()
	device := c.device
	c.mu.RUnlock()

	// Primes the csrftoken cookie.
	_, err := c.get(ctx, "si/fetch_headers/", url.Values{
		"challenge_type": {"signup"},
		"guid":           {strings.ReplaceAll(device.UUID, "-", "")},
	})
	if err != nil {
		return fmt.Errorf("fetch headers: %w", err)
	}

	form, err := c.signedForm(map[string]any{
		"phone_id":            device.PhoneID,
		"device_id":           device.DeviceID,
		"guid":                device.UUID,
		"username":            username,
		"password":            password,
		"login_attempt_count": "0",
	})
	if err != nil {
		return err
	}
	resp, err := c.post(ctx, "accounts/login/", nil, form)
	if err != nil {
		c.logger.WithError(err).Warn("login failed")
		return err
	}

	raw, ok := wire.Lookup(resp, "logged_in_user.pk")
	if !ok {
		return errs.New(errs.ErrorTypeAuth, http.StatusOK, "login response has no user")
	}
	var pk int64
	if n, ok := raw.(json.Number); ok {
		pk, err = n.Int64()
	} else {
		_, err = fmt.Sscan(fmt.Sprint(raw), &pk)
	}
	if err != nil {
		return &errs.Error{Type: errs.ErrorTypeParsing, Message: "invalid user pk", Err: err}
	}

	c.mu.Lock()
	c.username = username
	c.userID = pk
	c.mu.Unlock()

	c.logger.InfoWithFields("logged in", map[string]interface{}{"username": username, "user_id": pk})
	return nil
}

// ExportSession serializes the cookies and identity of the current login.
func (c *Client) ExportSession() ([]byte, error) {
	c.mu.RLock()
	s := Session{
		Username: c.username,
		UserID:   c.userID,
		Device:   c.device,
	}
	c.mu.RUnlock()

	for _, ck := range c.jar.Cookies(c.baseURL) {
		s.Cookies = append(s.Cookies, Cookie{Name: ck.Name, Value: ck.Value})
	}
	return json.Marshal(s)
}

// ImportSession restores a session produced by ExportSession. It does not
// contact the remote; call Verify to check that the session is still valid.
func (c *Client) ImportSession(data []byte) error {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid session data: %w", err)
	}
	if len(s.Cookies) == 0 {
		return fmt.Errorf("invalid session data: no cookies")
	}

	cookies := make([]*http.Cookie, len(s.Cookies))
	for i, ck := range s.Cookies {
		cookies[i] = &http.Cookie{Name: ck.Name, Value: ck.Value, Path: "/"}
	}
	c.jar.SetCookies(c.baseURL, cookies)

	c.mu.Lock()
	c.username = s.Username
	c.userID = s.UserID
	if s.Device.UUID != "" {
		c.device = s.Device
	}
	c.mu.Unlock()
	return nil
}

// Verify checks that the current cookies belong to a logged in account.
func (c *Client) Verify(ctx context.Context) error {
	resp, err := c.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if _, ok := wire.Lookup(resp, "user.pk"); !ok {
		return errs.New(errs.ErrorTypeAuth, http.StatusOK, "session is not logged in")
	}
	return nil
}
