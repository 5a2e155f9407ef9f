package auth

import (
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyLanding(t *testing.T) {
	tests := []struct {
		location string
		want     landing
	}{
		{"https://www.linkedin.com/login", landingPending},
		{"https://www.linkedin.com/checkpoint/lg/login-submit", landingPending},
		{"https://www.linkedin.com/feed/", landingFeed},
		{"https://www.linkedin.com/checkpoint/challenge/AgF?ut=1", landingChallenge},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyLanding(tt.location))
		})
	}
}

func TestConvertCookies(t *testing.T) {
	raw := []*network.Cookie{
		{Name: "JSESSIONID", Value: `"ajax:1"`, Domain: ".www.linkedin.com", Path: "/", Expires: 1793232000.5, Secure: true},
		{Name: "lang", Value: "v=2", Path: "/", Expires: -1, HTTPOnly: true},
	}

	cookies := convertCookies(raw)
	require.Len(t, cookies, 2)

	assert.Equal(t, "JSESSIONID", cookies[0].Name)
	assert.Equal(t, ".www.linkedin.com", cookies[0].Domain)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, time.Unix(1793232000, 500000000).UTC(), cookies[0].Expires)

	assert.True(t, cookies[1].Expires.IsZero())
	assert.True(t, cookies[1].HttpOnly)
}
