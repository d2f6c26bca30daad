// Package session maps opaque session ids, carried in a cookie, to the
// authenticated user and their provider linkage records.
package session

import (
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ProviderRecord is one provider linkage held by a session: the last
// token obtained from that provider and whether the provider still has
// an open browser session eligible for RP-initiated logout.
type ProviderRecord struct {
	Provider     string        `json:"provider"`
	Subject      string        `json:"subject,omitempty"`
	Token        *oauth2.Token `json:"token,omitempty"`
	RPLogoutOpen bool          `json:"rp_logout_open,omitempty"`
}

// Data is the value stored per session id. One Data is exclusively owned
// by one store entry; the cookie only carries the id.
type Data struct {
	UserID    uuid.UUID        `json:"user_id"`
	Providers []ProviderRecord `json:"providers,omitempty"`
}

// NewData starts a session for user with an optional initial provider
// record.
func NewData(userID uuid.UUID, records ...ProviderRecord) Data {
	return Data{UserID: userID, Providers: records}
}

// AttachProvider replaces the record with the same provider name, or
// appends. A slice is used instead of a map because the number of
// providers is small and the number of sessions is large.
func (d *Data) AttachProvider(rec ProviderRecord) {
	for i, r := range d.Providers {
		if r.Provider == rec.Provider {
			d.Providers[i] = rec
			return
		}
	}
	d.Providers = append(d.Providers, rec)
}

// Provider returns the record for the named provider.
func (d *Data) Provider(name string) (ProviderRecord, bool) {
	for _, r := range d.Providers {
		if r.Provider == name {
			return r, true
		}
	}
	return ProviderRecord{}, false
}

// RPLogoutProvider returns the first provider with an open relying-party
// session, used by logout to build the provider logout URL.
func (d *Data) RPLogoutProvider() (string, bool) {
	for _, r := range d.Providers {
		if r.RPLogoutOpen {
			return r.Provider, true
		}
	}
	return "", false
}

// clone returns a copy whose Providers slice does not share backing
// storage with d, so snapshots handed to readers stay stable while the
// store mutates the original.
func (d Data) clone() Data {
	if d.Providers == nil {
		return d
	}
	providers := make([]ProviderRecord, len(d.Providers))
	copy(providers, d.Providers)
	d.Providers = providers
	return d
}
