package mssql

import (
	"fmt"
	"math"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ekaya-inc/ekaya-export/pkg/models"
)

// DriverName is the database/sql driver every connection is opened with.
const DriverName = "sqlserver"

// Target is a parsed endpoint: HOST, HOST\INSTANCE or HOST,PORT.
type Target struct {
	Host     string
	Instance string
	Port     int
}

// localAliases are the names SQL Server tooling accepts for the local machine.
var localAliases = map[string]bool{
	".":       true,
	"(local)": true,
}

// ParseEndpoint splits an endpoint into host, instance and port.
// "." and "(local)" resolve to localhost; a "tcp:" prefix is accepted.
func ParseEndpoint(endpoint models.Endpoint) (Target, error) {
	s := strings.TrimSpace(string(endpoint))
	if s == "" {
		return Target{}, fmt.Errorf("endpoint is empty")
	}
	if len(s) > 4 && strings.EqualFold(s[:4], "tcp:") {
		s = s[4:]
	}

	var t Target
	if i := strings.LastIndex(s, ","); i >= 0 {
		port, err := strconv.Atoi(strings.TrimSpace(s[i+1:]))
		if err != nil || port <= 0 || port > 65535 {
			return Target{}, fmt.Errorf("invalid port in endpoint %q", endpoint)
		}
		t.Port = port
		s = strings.TrimSpace(s[:i])
	}

	if i := strings.Index(s, `\`); i >= 0 {
		t.Instance = strings.TrimSpace(s[i+1:])
		s = strings.TrimSpace(s[:i])
		if t.Instance == "" {
			return Target{}, fmt.Errorf("empty instance name in endpoint %q", endpoint)
		}
	}

	if s == "" {
		return Target{}, fmt.Errorf("missing host in endpoint %q", endpoint)
	}
	if localAliases[strings.ToLower(s)] {
		s = "localhost"
	}
	t.Host = s

	return t, nil
}

// Config contains SQL Server connection options for one session.
type Config struct {
	Target      Target
	Credentials models.Credentials
	Database    string

	// Connection options
	Encrypt                string
	TrustServerCertificate bool
	ConnectionTimeout      time.Duration
	AppName                string
}

// ConnectionString builds a sqlserver:// URL for go-mssqldb.
// Without user info the driver uses integrated authentication.
func (c *Config) ConnectionString() string {
	u := &url.URL{
		Scheme: "sqlserver",
		Host:   c.Target.Host,
	}
	if c.Target.Port > 0 {
		u.Host = net.JoinHostPort(c.Target.Host, strconv.Itoa(c.Target.Port))
	} else if c.Target.Instance != "" {
		// The instance is resolved through the SQL Server Browser service.
		u.Path = c.Target.Instance
	}

	if !c.Credentials.IsIntegrated() {
		u.User = url.UserPassword(c.Credentials.Username(), c.Credentials.Password())
	}

	query := url.Values{}
	if c.Database != "" {
		query.Add("database", c.Database)
	}
	if c.Encrypt != "" {
		query.Add("encrypt", c.Encrypt)
	}
	if c.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}
	if secs := timeoutSeconds(c.ConnectionTimeout); secs > 0 {
		query.Add("connection timeout", strconv.Itoa(secs))
		query.Add("dial timeout", strconv.Itoa(secs))
	}
	if c.AppName != "" {
		query.Add("app name", c.AppName)
	}
	u.RawQuery = query.Encode()

	return u.String()
}

// timeoutSeconds rounds up to whole seconds; the driver takes integers.
func timeoutSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
