package schema

import "sync"

// Certificate types
const (
	CertSelfSigned  = "self-signed"
	CertLetsEncrypt = "letsencrypt"
	CertManual      = "manual"
)

var (
	templateOnce sync.Once
	builtin      *Schema
)

// Template returns the built-in installer schema. Sections and options are
// resolved in the order they appear here, so a condition may only name an
// option declared above it.
func Template() *Schema {
	templateOnce.Do(func() {
		builtin = MustNew(templateSections()...)
	})
	return builtin
}

func enabled() Option {
	return Option{Name: "enabled", Default: Literal("true")}
}

func templateSections() []Section {
	return []Section{
		{
			Name: "general",
			Options: []Option{
				{Name: "hostname", Default: Literal("mail.%(domain)s")},
				{Name: "force", Default: Literal("false")},
			},
		},
		{
			Name: "certificate",
			Options: []Option{
				{Name: "generate", Default: Literal("true")},
				{
					Name:                 "type",
					Default:              Literal(CertSelfSigned),
					Customizable:         true,
					Question:             "Please choose your certificate type",
					Values:               []string{CertSelfSigned, CertLetsEncrypt, CertManual},
					NonInteractiveValues: []string{CertManual},
				},
				{Name: "tls_cert_file_path", Default: Literal("")},
				{Name: "tls_key_file_path", Default: Literal("")},
			},
		},
		{
			Name:      "letsencrypt",
			Condition: []string{"certificate.type=letsencrypt"},
			Options: []Option{
				{
					Name:         "email",
					Default:      Literal("admin@example.com"),
					Customizable: true,
					Question:     "Please enter the mail you wish to use for letsencrypt",
					Validators:   []ValidatorFunc{IsEmail},
				},
			},
		},
		{
			Name: "database",
			Options: []Option{
				{
					Name:         "engine",
					Default:      Literal("postgres"),
					Customizable: true,
					Question:     "Please choose your database engine",
					Values:       []string{"postgres", "mysql"},
				},
				{Name: "host", Default: Literal("127.0.0.1")},
				{Name: "install", Default: Literal("true")},
			},
		},
		{
			Name:      "postgres",
			Condition: []string{"database.engine=postgres"},
			Options: []Option{
				{Name: "user", Default: Literal("postgres")},
				{
					Name:         "password",
					Default:      Literal(""),
					Customizable: true,
					Question:     "Please enter postgres password",
					Validators:   []ValidatorFunc{NoShellMeta},
				},
			},
		},
		{
			Name:      "mysql",
			Condition: []string{"database.engine=mysql"},
			Options: []Option{
				{Name: "user", Default: Literal("root")},
				{
					Name:         "password",
					Default:      Generated(GeneratePassword),
					Customizable: true,
					Question:     "Please enter mysql root password",
					Validators:   []ValidatorFunc{NoShellMeta},
				},
				{Name: "charset", Default: Literal("utf8")},
				{Name: "collation", Default: Literal("utf8_general_ci")},
			},
		},
		{
			Name: "fail2ban",
			Options: []Option{
				enabled(),
				{Name: "config_dir", Default: Literal("/etc/fail2ban")},
				{Name: "max_retry", Default: Literal("20")},
				{Name: "ban_time", Default: Literal("3600")},
				{Name: "find_time", Default: Literal("30")},
			},
		},
		{
			Name: "modoboa",
			Options: []Option{
				{Name: "user", Default: Literal("modoboa")},
				{Name: "home_dir", Default: Literal("/srv/modoboa")},
				{Name: "venv_path", Default: Literal("%(home_dir)s/env")},
				{Name: "instance_path", Default: Literal("%(home_dir)s/instance")},
				{Name: "timezone", Default: Literal("Europe/Paris")},
				{Name: "dbname", Default: Literal("modoboa")},
				{Name: "dbuser", Default: Literal("modoboa")},
				{
					Name:         "dbpassword",
					Default:      Generated(GeneratePassword),
					Customizable: true,
					Question:     "Please enter Modoboa db password",
					Validators:   []ValidatorFunc{NoShellMeta},
				},
				{
					Name: "extensions",
					Default: Literal("modoboa-amavis modoboa-pdfcredentials " +
						"modoboa-postfix-autoreply modoboa-sievefilters " +
						"modoboa-webmail modoboa-contacts modoboa-radicale"),
				},
				{Name: "devmode", Default: Literal("false")},
				{Name: "version", Default: Literal("latest")},
				{Name: "install_beta", Default: Literal("false")},
			},
		},
		{
			Name: "automx",
			Options: []Option{
				enabled(),
				{Name: "user", Default: Literal("automx")},
				{Name: "config_dir", Default: Literal("/etc")},
				{Name: "home_dir", Default: Literal("/srv/automx")},
				{Name: "venv_path", Default: Literal("%(home_dir)s/env")},
				{Name: "instance_path", Default: Literal("%(home_dir)s/instance")},
			},
		},
		{
			Name: "antispam",
			Options: []Option{
				enabled(),
				{
					Name:         "type",
					Default:      Literal("rspamd"),
					Customizable: true,
					Question:     "Please select your antispam",
					Values:       []string{"rspamd", "amavis"},
					Condition:    []string{"antispam.enabled=true"},
				},
			},
		},
		{
			Name:      "rspamd",
			Condition: []string{"antispam.type=rspamd"},
			Options: []Option{
				{Name: "enabled", Default: DerivedBool{"antispam.enabled=true", "antispam.type=rspamd"}},
				{Name: "user", Default: Literal("_rspamd")},
				{
					Name:         "password",
					Default:      Generated(GeneratePassword),
					Customizable: true,
					Question:     "Please enter Rspamd interface password",
					Validators:   []ValidatorFunc{NoShellMeta},
				},
				{Name: "dnsbl", Default: Literal("true")},
				{Name: "dkim_keys_storage_dir", Default: Literal("/var/lib/dkim")},
				{Name: "greylisting", Default: Literal("true")},
				{Name: "whitelist_auth", Default: Literal("true")},
				{Name: "whitelist_auth_weigth", Default: Literal("-5")},
			},
		},
		{
			Name: "amavis",
			Options: []Option{
				{Name: "enabled", Default: DerivedBool{"antispam.enabled=true", "antispam.type=amavis"}},
				{Name: "user", Default: Literal("amavis")},
				{Name: "max_servers", Default: Literal("1")},
				{Name: "dbname", Default: Literal("amavis")},
				{Name: "dbuser", Default: Literal("amavis")},
				{
					Name:         "dbpassword",
					Default:      Generated(GeneratePassword),
					Customizable: true,
					Question:     "Please enter amavis db password",
					Condition:    []string{"amavis.enabled=true"},
					Validators:   []ValidatorFunc{NoShellMeta},
				},
			},
		},
		{
			Name: "clamav",
			Options: []Option{
				enabled(),
				{Name: "user", Default: Literal("clamav")},
			},
		},
		{
			Name: "dovecot",
			Options: []Option{
				enabled(),
				{Name: "config_dir", Default: Literal("/etc/dovecot")},
				{Name: "user", Default: Literal("vmail")},
				{Name: "home_dir", Default: Literal("/srv/vmail")},
				{Name: "mailboxes_owner", Default: Literal("vmail")},
				{Name: "extra_protocols", Default: Literal("")},
				{Name: "postmaster_address", Default: Literal("postmaster@%(domain)s")},
				{Name: "radicale_auth_socket_path", Default: Literal("/var/run/dovecot/auth-radicale")},
			},
		},
		{
			Name: "nginx",
			Options: []Option{
				enabled(),
				{Name: "config_dir", Default: Literal("/etc/nginx")},
			},
		},
		{
			Name: "razor",
			Options: []Option{
				enabled(),
				{Name: "config_dir", Default: Literal("/etc/razor")},
			},
		},
		{
			Name: "postfix",
			Options: []Option{
				enabled(),
				{Name: "config_dir", Default: Literal("/etc/postfix")},
				{Name: "message_size_limit", Default: Literal("11534336")},
			},
		},
		{
			Name: "postwhite",
			Options: []Option{
				enabled(),
				{Name: "config_dir", Default: Literal("/etc")},
			},
		},
		{
			Name: "spamassassin",
			Options: []Option{
				{Name: "enabled", Default: DerivedBool{"antispam.enabled=true", "antispam.type=amavis"}},
				{Name: "config_dir", Default: Literal("/etc/mail/spamassassin")},
				{Name: "dbname", Default: Literal("spamassassin")},
				{Name: "dbuser", Default: Literal("spamassassin")},
				{
					Name:         "dbpassword",
					Default:      Generated(GeneratePassword),
					Customizable: true,
					Question:     "Please enter spamassassin db password",
					Condition:    []string{"spamassassin.enabled=true"},
					Validators:   []ValidatorFunc{NoShellMeta},
				},
			},
		},
		{
			Name: "uwsgi",
			Options: []Option{
				enabled(),
				{Name: "config_dir", Default: Literal("/etc/uwsgi")},
				{Name: "nb_processes", Default: Literal("2")},
			},
		},
		{
			Name: "radicale",
			Options: []Option{
				enabled(),
				{Name: "user", Default: Literal("radicale")},
				{Name: "config_dir", Default: Literal("/etc/radicale")},
				{Name: "home_dir", Default: Literal("/srv/radicale")},
				{Name: "venv_path", Default: Literal("%(home_dir)s/env")},
				{Name: "oauth2_client_secret", Default: Generated(GenerateUUID)},
			},
		},
		{
			Name: "opendkim",
			Options: []Option{
				{Name: "enabled", Default: DerivedBool{"antispam.enabled=true", "antispam.type=amavis"}},
				{Name: "user", Default: Literal("opendkim")},
				{Name: "config_dir", Default: Literal("/etc")},
				{Name: "port", Default: Literal("12345")},
				{Name: "keys_storage_dir", Default: Literal("/var/lib/dkim")},
				{Name: "dbuser", Default: Literal("opendkim")},
				{
					Name:         "dbpassword",
					Default:      Generated(GeneratePassword),
					Customizable: true,
					Question:     "Please enter OpenDKIM db password",
					Condition:    []string{"opendkim.enabled=true"},
					Validators:   []ValidatorFunc{NoShellMeta},
				},
			},
		},
		{
			Name: "backup",
			Options: []Option{
				{Name: "default_path", Default: Literal("/modoboa_backup/")},
			},
		},
	}
}
