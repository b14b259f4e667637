package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/fetch/http"
)

type requestOptions struct {
	headers     []string
	data        string
	json        string
	form        []string
	user        string
	bearer      string
	proxy       string
	http11      bool
	noRedirects bool
	timeout     time.Duration
}

func newMethodCmds(global *globalOptions) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(http.Methods))
	for _, method := range http.Methods {
		cmds = append(cmds, newMethodCmd(global, method))
	}
	return cmds
}

func newMethodCmd(global *globalOptions, method http.Method) *cobra.Command {
	opts := &requestOptions{}
	name := strings.ToLower(method.String())

	cmd := &cobra.Command{
		Use:   name + " URL",
		Short: fmt.Sprintf("Make a %s request to the specified URL", method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := global.formatter(cmd)
			if err != nil {
				return err
			}

			client := http.NewClient(
				http.WithTimeout(opts.timeout),
				http.WithLogger(global.logger(cmd.ErrOrStderr())),
			)
			b, err := opts.apply(client.Request(method, normalizeURL(args[0])))
			if err != nil {
				return err
			}

			out, err := b.Build()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRequest(out))

			resp, err := b.Execute(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatResponse(resp))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&opts.headers, "header", "H", nil, "HTTP headers to include (can be used multiple times)")
	flags.StringVarP(&opts.data, "data", "d", "", "Data to send in the request body")
	flags.StringVarP(&opts.json, "json", "j", "", "JSON data to send in the request body")
	flags.StringArrayVarP(&opts.form, "form", "F", nil, "Form attribute as key=value (can be used multiple times)")
	flags.StringVarP(&opts.user, "user", "u", "", "Basic authentication as user:password")
	flags.StringVar(&opts.bearer, "bearer", "", "Bearer token for the Authorization header")
	flags.StringVar(&opts.proxy, "proxy", "", "HTTP proxy as host:port")
	flags.BoolVar(&opts.http11, "http1.1", false, "Restrict the request to HTTP/1.1")
	flags.BoolVar(&opts.noRedirects, "no-redirects", false, "Do not follow redirects")
	flags.DurationVarP(&opts.timeout, "timeout", "t", http.DefaultTimeout, "Request timeout")
	cmd.MarkFlagsMutuallyExclusive("data", "json")
	cmd.MarkFlagsMutuallyExclusive("user", "bearer")
	return cmd
}

// apply configures b from the command flags and returns its first error.
func (o *requestOptions) apply(b *http.RequestBuilder) (*http.RequestBuilder, error) {
	for _, header := range o.headers {
		name, value, ok := strings.Cut(header, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header %q, expected Name: value", header)
		}
		b.WithHeader(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	switch {
	case o.data != "":
		b.WithBody(o.data)
	case o.json != "":
		if !json.Valid([]byte(o.json)) {
			return nil, fmt.Errorf("invalid JSON body")
		}
		b.WithBody(o.json)
		if _, ok := headerSet(o.headers, "Content-Type"); !ok {
			b.WithHeader("Content-Type", http.ContentTypeJSON)
		}
	}

	for _, attr := range o.form {
		name, value, ok := strings.Cut(attr, "=")
		if !ok {
			return nil, fmt.Errorf("invalid form attribute %q, expected key=value", attr)
		}
		b.WithFormAttribute(name, value)
	}

	if o.user != "" {
		username, password, _ := strings.Cut(o.user, ":")
		b.WithBasicAuthentication(username, password)
	}
	if o.bearer != "" {
		b.WithBearerToken(o.bearer)
	}

	if o.proxy != "" {
		host, port, err := parseProxy(o.proxy)
		if err != nil {
			return nil, err
		}
		b.WithProxy(host, port)
	}
	if o.http11 {
		b.WithHTTPVersion1_1()
	}
	if o.noRedirects {
		b.DisableRedirects()
	}

	return b, b.Err()
}

func headerSet(headers []string, name string) (string, bool) {
	for _, header := range headers {
		key, value, ok := strings.Cut(header, ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), name) {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}

func parseProxy(s string) (string, int, error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 {
		return "", 0, fmt.Errorf("invalid proxy %q, expected host:port", s)
	}
	port, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid proxy port %q", s[i+1:])
	}
	return strings.Trim(s[:i], "[]"), port, nil
}

// normalizeURL adds the http scheme when the URL has none.
func normalizeURL(raw string) string {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "http://" + raw
	}
	return raw
}
