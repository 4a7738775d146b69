package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTLDs(tb testing.TB) TLDSet {
	tb.Helper()
	tlds, err := NewTLDSet([]string{
		"as", "cd", "co", "com", "jp", "lol", "museum", "name", "net", "org", "uk",
	})
	require.NoError(tb, err)
	return tlds
}

func testDisposable() DomainSet {
	return NewDomainSet([]string{"mailinator.com", "yopmail.com"})
}

func TestIsValidEmail(t *testing.T) {
	tlds := testTLDs(t)
	disposable := testDisposable()

	tests := []struct {
		email   string
		full    bool // TLD check + disposable blocking
		tldOnly bool // TLD check, disposables allowed
		noTLD   bool // no TLD check, disposables blocked
	}{
		{"local@domain.com", true, true, true},
		{"local@domain.con", false, false, true},
		{"local@domain.co.uk", true, true, true},
		{"local@subdomain.domain.co.uk", true, true, true},
		{strings.Repeat("a", 64) + "@domain.com", true, true, true},
		{strings.Repeat("a", 65) + "@domain.com", false, false, false},
		{"a@" + strings.Repeat("b", 248) + ".com", true, true, true},
		{"a@" + strings.Repeat("b", 249) + ".com", false, false, false},
		{".local@domain.com", false, false, false},
		{"local.@domain.com", false, false, false},
		{"$local@domain.com", true, true, true},
		{"lo..cal@domain.com", false, false, false},
		{"lo.cal@domain.com", true, true, true},
		{"local@domain..com", false, false, false},
		{"local@.domain.com", false, false, false},
		{"local@domain.com.", false, false, false},
		{"local@domain.c", false, false, false},
		{"local@domain.co", true, true, true},
		{"local@domain.lop", false, false, true},
		{"local@domain.lol", true, true, true},
		{"local@DOMAIN.COM", true, true, true},
		{"firstname.lastname@gmail.com", true, true, true},
		{"firstname+lastname@gmail.com", true, true, true},
		{"firstname-lastname@gmail.com", true, true, true},
		{"email@123.123.123.123", false, false, true},
		{"\"email\"@gmail.com", true, true, true},
		{"1234567890@gmail.com", true, true, true},
		{"email@example-one.com", true, true, true},
		{"_______@gmail.com", true, true, true},
		{"email@example.name", true, true, true},
		{"email@example.museum", true, true, true},
		{"email@example.co.jp", true, true, true},
		{"oower\"$wr@2342.as", true, true, true},
		{"much.”more\\ unusual”@gmail.com", false, false, false},
		{"very.unusual.”@”.unusual.com@gmail.com", false, false, false},
		{"local@mailinator.com", false, true, false},
		{"local@MailInator.com", false, true, false},
		{"local@sub.mailinator.com", true, true, true},
		{"a@b.cd", true, true, true},
		{"a@b.c", false, false, false},
		{"", false, false, false},
		{"local", false, false, false},
		{"@domain.com", false, false, false},
		{"local@", false, false, false},
		{"lo@cal@domain.com", false, false, false},
		{"lo cal@domain.com", false, false, false},
		{"local@dom_ain.com", false, false, false},
		{"local@a.com", true, true, true},
		{"local@.com", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.full, IsValidEmail(tt.email, tlds, disposable,
				ValidationConfig{ValidateTLD: true, BlockDisposables: true}), "full")
			assert.Equal(t, tt.tldOnly, IsValidEmail(tt.email, tlds, disposable,
				ValidationConfig{ValidateTLD: true, BlockDisposables: false}), "tld only")
			assert.Equal(t, tt.noTLD, IsValidEmail(tt.email, tlds, disposable,
				ValidationConfig{ValidateTLD: false, BlockDisposables: true}), "no tld")
		})
	}
}

func TestIsValidEmail_LengthBounds(t *testing.T) {
	tlds := testTLDs(t)

	local := strings.Repeat("a", 64)
	domain := strings.Repeat("b", 63) + "." + strings.Repeat("c", 63) + "." + strings.Repeat("d", 58) + ".com"
	email := local + "@" + domain
	require.Greater(t, len(email), maxEmailLen)
	assert.False(t, IsValidEmail(email, tlds, DomainSet{}, DefaultValidationConfig()))
}

func TestIsValidEmail_EveryLocalSpecial(t *testing.T) {
	tlds := testTLDs(t)
	for _, c := range "!#$%&'*+-/=?^_`{|}~\"" {
		email := "a" + string(c) + "b@domain.com"
		assert.True(t, IsValidEmail(email, tlds, DomainSet{}, DefaultValidationConfig()), email)
	}
	for _, c := range "()<>[]:;,\\ " {
		email := "a" + string(c) + "b@domain.com"
		assert.False(t, IsValidEmail(email, tlds, DomainSet{}, DefaultValidationConfig()), email)
	}
}

func TestSnapshot_IsValidEmail(t *testing.T) {
	s := &Snapshot{TLDs: testTLDs(t), Disposable: testDisposable()}

	assert.False(t, s.IsValidEmail("local@mailinator.com", DefaultValidationConfig()))
	assert.True(t, s.IsValidEmail("local@mailinator.com", ValidationConfig{ValidateTLD: true}))
	assert.True(t, s.IsDisposable(" Mailinator.COM "))
	assert.False(t, s.IsDisposable("gmail.com"))
}

func BenchmarkIsValidEmail(b *testing.B) {
	tlds := testTLDs(b)
	disposable := testDisposable()
	cfg := DefaultValidationConfig()
	emails := []string{
		"firstname.lastname@gmail.com",
		"local@mailinator.com",
		"lo..cal@domain.com",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = IsValidEmail(emails[i%len(emails)], tlds, disposable, cfg)
	}
}
