package tre

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"

	"votolocal-backend/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Client is one reusable lookup session: its own cookie jar, a
// browser-profile transport and the site profile it drives. Sessions
// are expensive enough that workers pool and reuse them instead of
// constructing one per task.
type Client struct {
	profile   Profile
	http      *resty.Client
	base      *url.URL
	snapshots restyutil.InstrumentOutput
}

type ClientOptions struct {
	Profile Profile
	// Snapshots receives the page state of failed lookups, keyed by the
	// subject's identity. Optional.
	Snapshots restyutil.InstrumentOutput
	// HttpDump receives every raw response body. Optional, debug only.
	HttpDump restyutil.InstrumentOutput
}

func NewClient(opts ClientOptions) (*Client, error) {
	base, err := url.Parse(opts.Profile.LookupURL)
	if err != nil {
		return nil, fmt.Errorf("parse lookup url: %w", err)
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", browserUserAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(base.Hostname()))
	client.SetTimeout(opts.Profile.NavigateTimeout)

	restyutil.InstrumentClient(client, tracer, opts.HttpDump)

	return &Client{
		profile:   opts.Profile,
		http:      client,
		base:      base,
		snapshots: opts.Snapshots,
	}, nil
}

// fetchDoc GETs a page and parses it.
func (c *Client) fetchDoc(ctx context.Context, link string) (*goquery.Document, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
}

// resolveRef resolves a possibly-relative form action against the site.
func (c *Client) resolveRef(ref string) string {
	if ref == "" {
		return c.profile.LookupURL
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return c.profile.LookupURL
	}
	return c.base.ResolveReference(parsed).String()
}

// snapshot captures the current page state for offline inspection.
// Best effort, never fails loudly.
func (c *Client) snapshot(subject Subject, doc *goquery.Document) {
	if c.snapshots == nil || doc == nil {
		return
	}
	contents, err := doc.Html()
	if err != nil {
		return
	}
	c.snapshots.Write(subject.Key()+".html", contents)
}
