// Package http provides a fluent request builder over net/http and a
// read-only response wrapper.
//
// A request is configured through chained calls and executed exactly once:
//
//	resp, err := http.Post().
//	    To("https://api.example.com/login").
//	    WithFormAttribute("username", "alice").
//	    WithFormAttribute("password", "secret").
//	    WithTimeout(10 * time.Second).
//	    Execute(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if value, ok := resp.Header("X-Session"); ok {
//	    fmt.Println(value)
//	}
//
// JSON Example:
//
//	var user struct {
//	    ID   int    `json:"id"`
//	    Name string `json:"name"`
//	}
//	resp, err := http.Put().
//	    To("https://api.example.com/users/1").
//	    WithBearerToken(token).
//	    WithJSONBody(user).
//	    Execute(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := resp.BodyAsJSON(&user); err != nil {
//	    log.Fatal(err)
//	}
//
// Form attributes and explicit bodies:
//
// WithFormAttribute sets the form Content-Type immediately. For POST and PUT
// the encoded attributes replace any body set by WithBody or WithJSONBody when
// the request is executed, whatever the call order. For the other methods the
// attributes are ignored and the body is sent unchanged.
//
// Errors:
//
// Configuration errors are sticky: the first one is kept on the builder and
// returned by Err, Build and Execute. Use errors.Is with ErrInvalidArgument,
// ErrConfiguration, ErrSerialization, ErrExecution and ErrTimeout to classify
// failures.
//
// Thread Safety:
//
// A RequestBuilder belongs to a single goroutine and is executed once.
// Response values are immutable. NetTransport is safe for concurrent use and
// can be shared between builders with WithTransport.
package http
