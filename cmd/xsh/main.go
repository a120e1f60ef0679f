// Command xsh is an interactive shell over a session: it connects,
// then hands control to a terminal UI for running statements and
// inspecting their results.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gomysqlx/client/session"
	"github.com/gomysqlx/client/tui"
	"github.com/gomysqlx/client/xerr"
)

var version = "dev"

func main() {
	fs := flag.NewFlagSet("xsh", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "xsh — interactive shell for a MySQL X Protocol session\n\nUsage:\n  xsh [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	host := fs.String("host", "127.0.0.1", "server host")
	port := fs.Int("port", 33060, "server port")
	socket := fs.String("socket", "", "unix socket path (overrides host/port)")
	user := fs.String("user", "root", "user name")
	pass := fs.String("password", "", "password")
	schema := fs.String("schema", "", "default schema")
	tlsMode := fs.String("tls-mode", "preferred", "TLS mode: disabled, preferred, required, verify_ca, verify_identity")
	tlsCA := fs.String("tls-ca", "", "path to CA certificate bundle")
	tlsCert := fs.String("tls-cert", "", "path to client certificate")
	tlsKey := fs.String("tls-key", "", "path to client key")
	compression := fs.String("compression", "preferred", "compression negotiation: disabled, preferred, required")
	showVersion := fs.Bool("version", false, "show version and exit")

	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("xsh %s\n", version)
		return
	}

	sess := session.New()

	options := []struct{ name, value string }{
		{"tls_mode", *tlsMode},
		{"tls_ca", *tlsCA},
		{"tls_cert", *tlsCert},
		{"tls_key", *tlsKey},
		{"compression_mode", *compression},
	}
	for _, opt := range options {
		if opt.value == "" {
			continue
		}
		if serr := sess.SetOption(opt.name, opt.value); serr != nil {
			log.Fatalf("%s: %v", opt.name, serr)
		}
	}

	ctx := context.Background()
	var connErr *xerr.Error
	if *socket != "" {
		connErr = sess.ConnectUnix(ctx, *socket, *user, *pass, *schema)
	} else {
		connErr = sess.ConnectTCP(ctx, *host, *port, *user, *pass, *schema)
	}
	if connErr != nil {
		log.Fatalf("connect: %v", connErr)
	}
	defer func() { _ = sess.Close() }()

	p := tea.NewProgram(tui.New(sess), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
}
