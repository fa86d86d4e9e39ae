package jellyseerr

import (
	"fmt"

	"github.com/rebuildarr/buildarr-jellyseerr/remotemap"
)

// EncryptionMethod selects how the connection to the SMTP server is
// secured.
type EncryptionMethod string

const (
	// EncryptionNone disables encryption entirely.
	EncryptionNone EncryptionMethod = "none"
	// EncryptionSMTPS uses implicit TLS on a dedicated port.
	EncryptionSMTPS EncryptionMethod = "smtps"
	// EncryptionSTARTTLSPrefer upgrades via STARTTLS when the server
	// offers it, falling back to plaintext otherwise.
	EncryptionSTARTTLSPrefer EncryptionMethod = "starttls-prefer"
	// EncryptionSTARTTLSStrict requires the STARTTLS upgrade.
	EncryptionSTARTTLSStrict EncryptionMethod = "starttls-strict"
)

var encryptionMethods = []EncryptionMethod{
	EncryptionNone,
	EncryptionSMTPS,
	EncryptionSTARTTLSPrefer,
	EncryptionSTARTTLSStrict,
}

// ParseEncryptionMethod converts a configuration name into an
// EncryptionMethod.
func ParseEncryptionMethod(name string) (EncryptionMethod, error) {
	for _, method := range encryptionMethods {
		if name == string(method) {
			return method, nil
		}
	}
	return "", fmt.Errorf("unknown encryption method %q", name)
}

// Jellyseerr stores the encryption method as three booleans. Exactly
// one combination corresponds to each method, with starttls-prefer
// being the all-false case.
func (m EncryptionMethod) secure() bool     { return m == EncryptionSMTPS }
func (m EncryptionMethod) ignoreTLS() bool  { return m == EncryptionNone }
func (m EncryptionMethod) requireTLS() bool { return m == EncryptionSTARTTLSStrict }

func decodeEncryptionMethod(remote map[string]any) (any, error) {
	flags := make(map[string]bool, 3)
	for _, attr := range []string{"secure", "ignoreTls", "requireTls"} {
		flag, err := remotemap.Bool(remote[attr])
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", attr, err)
		}
		flags[attr] = flag
	}
	for _, method := range encryptionMethods {
		if method.secure() == flags["secure"] &&
			method.ignoreTLS() == flags["ignoreTls"] &&
			method.requireTLS() == flags["requireTls"] {
			return method, nil
		}
	}
	return nil, fmt.Errorf("invalid encryption attribute combination: secure=%t, ignoreTls=%t, requireTls=%t",
		flags["secure"], flags["ignoreTls"], flags["requireTls"])
}

// EmailSettings configures notification emails sent through an SMTP
// server. Jellyseerr also uses this agent for user-facing emails such
// as password resets, so the sender attributes are required whenever
// the agent is enabled.
type EmailSettings struct {
	Enable                 bool               `mapstructure:"enable" yaml:"enable"`
	NotificationTypes      []NotificationType `mapstructure:"notification_types" yaml:"notification_types"`
	RequireUserEmail       bool               `mapstructure:"require_user_email" yaml:"require_user_email"`
	SenderName             string             `mapstructure:"sender_name" yaml:"sender_name"`
	SenderAddress          string             `mapstructure:"sender_address" yaml:"sender_address"`
	SMTPHost               string             `mapstructure:"smtp_host" yaml:"smtp_host"`
	SMTPPort               int                `mapstructure:"smtp_port" yaml:"smtp_port"`
	EncryptionMethod       EncryptionMethod   `mapstructure:"encryption_method" yaml:"encryption_method"`
	AllowSelfSignedCerts   bool               `mapstructure:"allow_selfsigned_certificates" yaml:"allow_selfsigned_certificates"`
	SMTPUsername           string             `mapstructure:"smtp_username" yaml:"smtp_username"`
	SMTPPassword           string             `mapstructure:"smtp_password" yaml:"smtp_password"`
	PGPPrivateKey          string             `mapstructure:"pgp_private_key" yaml:"pgp_private_key"`
	PGPPassword            string             `mapstructure:"pgp_password" yaml:"pgp_password"`
}

// DefaultEmailSettings returns the email agent defaults, matching what
// a fresh Jellyseerr instance stores.
func DefaultEmailSettings() EmailSettings {
	return EmailSettings{
		SenderName:       "Jellyseerr",
		SMTPPort:         587,
		EncryptionMethod: EncryptionSTARTTLSPrefer,
	}
}

func (s *EmailSettings) agentType() string { return "email" }

func (s *EmailSettings) Field(name string) (any, error) {
	switch name {
	case "enable":
		return s.Enable, nil
	case "notification_types":
		return s.NotificationTypes, nil
	case "require_user_email":
		return s.RequireUserEmail, nil
	case "sender_name":
		return s.SenderName, nil
	case "sender_address":
		return s.SenderAddress, nil
	case "smtp_host":
		return s.SMTPHost, nil
	case "smtp_port":
		return s.SMTPPort, nil
	case "encryption_method":
		return s.EncryptionMethod, nil
	case "allow_selfsigned_certificates":
		return s.AllowSelfSignedCerts, nil
	case "smtp_username":
		return s.SMTPUsername, nil
	case "smtp_password":
		return s.SMTPPassword, nil
	case "pgp_private_key":
		return s.PGPPrivateKey, nil
	case "pgp_password":
		return s.PGPPassword, nil
	}
	return nil, fmt.Errorf("unknown email notification field %q", name)
}

func (s *EmailSettings) SetField(name string, value any) error {
	var err error
	switch name {
	case "enable":
		s.Enable, err = remotemap.Bool(value)
	case "notification_types":
		s.NotificationTypes, err = notificationTypeList(value)
	case "require_user_email":
		s.RequireUserEmail, err = remotemap.Bool(value)
	case "sender_name":
		s.SenderName, err = remotemap.String(value)
	case "sender_address":
		s.SenderAddress, err = remotemap.String(value)
	case "smtp_host":
		s.SMTPHost, err = remotemap.String(value)
	case "smtp_port":
		s.SMTPPort, err = remotemap.Int(value)
	case "encryption_method":
		method, ok := value.(EncryptionMethod)
		if !ok {
			return fmt.Errorf("expected encryption method, got %T", value)
		}
		s.EncryptionMethod = method
	case "allow_selfsigned_certificates":
		s.AllowSelfSignedCerts, err = remotemap.Bool(value)
	case "smtp_username":
		s.SMTPUsername, err = remotemap.String(value)
	case "smtp_password":
		s.SMTPPassword, err = remotemap.String(value)
	case "pgp_private_key":
		s.PGPPrivateKey, err = remotemap.String(value)
	case "pgp_password":
		s.PGPPassword, err = remotemap.String(value)
	default:
		return fmt.Errorf("unknown email notification field %q", name)
	}
	return err
}

func (s *EmailSettings) baseMap() []remotemap.Entry { return notificationTypesBaseMap() }

func (s *EmailSettings) optionsMap() []remotemap.Entry {
	encryption := func(encode func(EncryptionMethod) bool) func(any) (any, error) {
		return func(v any) (any, error) {
			return encode(v.(EncryptionMethod)), nil
		}
	}
	return []remotemap.Entry{
		{Local: "require_user_email", Remote: "userEmailRequired", Optional: true},
		{Local: "sender_name", Remote: "senderName"},
		{Local: "sender_address", Remote: "emailFrom"},
		{Local: "smtp_host", Remote: "smtpHost"},
		{Local: "smtp_port", Remote: "smtpPort"},
		{
			Local:      "encryption_method",
			Remote:     "secure",
			DecodeRoot: decodeEncryptionMethod,
			Encode:     encryption(EncryptionMethod.secure),
		},
		{
			Local:      "encryption_method",
			Remote:     "ignoreTls",
			DecodeRoot: decodeEncryptionMethod,
			Encode:     encryption(EncryptionMethod.ignoreTLS),
		},
		{
			Local:      "encryption_method",
			Remote:     "requireTls",
			DecodeRoot: decodeEncryptionMethod,
			Encode:     encryption(EncryptionMethod.requireTLS),
		},
		{Local: "allow_selfsigned_certificates", Remote: "allowSelfSigned"},
		{Local: "smtp_username", Remote: "authUser", Optional: true},
		{Local: "smtp_password", Remote: "authPass", Optional: true},
		{Local: "pgp_private_key", Remote: "pgpPrivateKey", Optional: true},
		{Local: "pgp_password", Remote: "pgpPassword", Optional: true},
	}
}

func (s *EmailSettings) requiredWhenEnabled() []string {
	return []string{"sender_name", "sender_address", "smtp_host"}
}

func (s *EmailSettings) validate() error {
	if err := checkEmailAddress("sender_address", s.SenderAddress); err != nil {
		return err
	}
	return checkPort("smtp_port", s.SMTPPort)
}
