package strategy_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Shadownc/favicon-api/internal/favicon"
	"github.com/Shadownc/favicon-api/internal/fetcher"
	"github.com/Shadownc/favicon-api/internal/strategy"
	"github.com/Shadownc/favicon-api/internal/upstream"
)

var _ = Describe("Special domain strategy", func() {
	var (
		getter *fakeGetter
		strat  strategy.Strategy
	)

	BeforeEach(func() {
		getter = newFakeGetter(map[string]route{
			"https://icons.example.net/github.png": {contentType: "image/png", body: "GH"},
		})
		strat = strategy.NewSpecialDomainStrategy([]favicon.Rule{
			{Domain: "github.com", URL: "https://icons.example.net/github.png", Timeout: time.Second},
			{Domain: "broken.example", URL: "https://icons.example.net/missing.png", Timeout: time.Second},
		}, getter)
	})

	It("is not applicable without a rule", func() {
		_, err := strat.Find(context.Background(), "example.com")
		Expect(err).To(MatchError(strategy.ErrNotApplicable))
		Expect(getter.Calls()).To(BeEmpty())
	})

	It("fetches the override URL", func() {
		res, err := strat.Find(context.Background(), "github.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(favicon.Result{Data: []byte("GH"), ContentType: "image/png"}))
	})

	It("fails when the override is unusable", func() {
		_, err := strat.Find(context.Background(), "broken.example")
		Expect(err).To(MatchError(strategy.ErrBadStatus))
	})
})

var _ = Describe("Service strategy", func() {
	var (
		getter  *fakeGetter
		service *upstream.Service
		strat   strategy.Strategy
	)

	BeforeEach(func() {
		service = upstream.New("s2", "https://s2.example/icons?domain={domain}")
		getter = newFakeGetter(map[string]route{
			"https://s2.example/icons?domain=example.com": {contentType: "image/png", body: "S2"},
		})
		strat = strategy.NewServiceStrategy(service, getter, time.Second)
	})

	It("is named after the service", func() {
		Expect(strat.Name()).To(Equal("s2"))
	})

	It("returns the service image", func() {
		res, err := strat.Find(context.Background(), "example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Data).To(Equal([]byte("S2")))
		Expect(res.ContentType).To(Equal("image/png"))
	})

	It("fails on a non-2xx answer", func() {
		_, err := strat.Find(context.Background(), "unknown.example")
		Expect(err).To(MatchError(strategy.ErrBadStatus))
	})

	It("steps aside while the service is unhealthy", func() {
		service.SetHealthy(false)
		_, err := strat.Find(context.Background(), "example.com")
		Expect(err).To(MatchError(strategy.ErrNotApplicable))
		Expect(getter.Calls()).To(BeEmpty())
	})
})

var _ = Describe("Origin", func() {
	It("uses https on the bare domain", func() {
		Expect(strategy.Origin("example.com")).To(Equal("https://example.com"))
	})

	It("brackets IPv6 literals", func() {
		Expect(strategy.Origin("::1")).To(Equal("https://[::1]"))

		getter := newFakeGetter(map[string]route{
			"https://[::1]/favicon.ico": {contentType: "image/x-icon", body: "ICO"},
		})
		strat := strategy.NewWellKnownPathsStrategy([]string{"/favicon.ico"}, getter, time.Second, time.Second, false)
		res, err := strat.Find(context.Background(), "::1")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Data).To(Equal([]byte("ICO")))
	})
})

var _ = Describe("Well-known paths strategy", func() {
	const domain = "example.com"
	origin := strategy.Origin(domain)

	Context("sequential", func() {
		It("stops at the first usable path", func() {
			getter := newFakeGetter(map[string]route{
				origin + "/favicon.png":        {contentType: "image/png", body: "PNG"},
				origin + "/assets/favicon.ico": {contentType: "image/x-icon", body: "ICO"},
			})
			strat := strategy.NewWellKnownPathsStrategy(nil, getter, time.Second, 4*time.Second, false)

			res, err := strat.Find(context.Background(), domain)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Data).To(Equal([]byte("PNG")))
			Expect(getter.Calls()).To(Equal([]string{origin + "/favicon.ico", origin + "/favicon.png"}))
		})

		It("returns the favicon.ico body and content type", func() {
			getter := newFakeGetter(map[string]route{
				origin + "/favicon.ico": {contentType: "image/vnd.microsoft.icon", body: "B"},
			})
			strat := strategy.NewWellKnownPathsStrategy(nil, getter, time.Second, 4*time.Second, false)

			res, err := strat.Find(context.Background(), domain)
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(favicon.Result{Data: []byte("B"), ContentType: "image/vnd.microsoft.icon"}))
		})

		It("fails when every path is missing", func() {
			getter := newFakeGetter(nil)
			strat := strategy.NewWellKnownPathsStrategy(nil, getter, time.Second, 4*time.Second, false)

			_, err := strat.Find(context.Background(), domain)
			Expect(err).To(MatchError(strategy.ErrBadStatus))
			Expect(getter.Calls()).To(HaveLen(len(strategy.DefaultPaths)))
		})

		It("rejects HTML served in place of an icon", func() {
			getter := newFakeGetter(map[string]route{
				origin + "/favicon.ico": {contentType: "text/html; charset=utf-8", body: "<html></html>"},
			})
			strat := strategy.NewWellKnownPathsStrategy([]string{"/favicon.ico"}, getter, time.Second, time.Second, false)

			_, err := strat.Find(context.Background(), domain)
			Expect(err).To(MatchError(strategy.ErrNotAnImage))
		})

		It("rejects empty bodies", func() {
			getter := newFakeGetter(map[string]route{
				origin + "/favicon.ico": {contentType: "image/x-icon"},
			})
			strat := strategy.NewWellKnownPathsStrategy([]string{"/favicon.ico"}, getter, time.Second, time.Second, false)

			_, err := strat.Find(context.Background(), domain)
			Expect(err).To(MatchError(strategy.ErrNotAnImage))
		})

		It("stops probing once the batch ceiling passes", func() {
			getter := newFakeGetter(map[string]route{
				origin + "/favicon.ico": {delay: time.Second, body: "late"},
			})
			strat := strategy.NewWellKnownPathsStrategy(nil, getter, 3*time.Second, 50*time.Millisecond, false)

			start := time.Now()
			_, err := strat.Find(context.Background(), domain)
			Expect(err).To(MatchError(strategy.ErrBatchExpire))
			Expect(time.Since(start)).To(BeNumerically("<", 500*time.Millisecond))
			Expect(getter.Calls()).To(HaveLen(1))
		})
	})

	Context("concurrent", func() {
		It("takes the first success without waiting for slow paths", func() {
			getter := newFakeGetter(map[string]route{
				origin + "/favicon.ico": {delay: 2 * time.Second, body: "slow"},
				origin + "/favicon.png": {delay: 10 * time.Millisecond, contentType: "image/png", body: "fast"},
			})
			strat := strategy.NewWellKnownPathsStrategy(nil, getter, 3*time.Second, 4*time.Second, true)

			start := time.Now()
			res, err := strat.Find(context.Background(), domain)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Data).To(Equal([]byte("fast")))
			Expect(time.Since(start)).To(BeNumerically("<", time.Second))
		})

		It("launches every path", func() {
			getter := newFakeGetter(nil)
			strat := strategy.NewWellKnownPathsStrategy(nil, getter, time.Second, 4*time.Second, true)

			_, err := strat.Find(context.Background(), domain)
			Expect(err).To(HaveOccurred())
			Expect(getter.Calls()).To(ConsistOf(
				origin+"/favicon.ico",
				origin+"/favicon.png",
				origin+"/assets/favicon.ico",
				origin+"/static/favicon.ico",
				origin+"/public/favicon.ico",
			))
		})

		It("abandons the batch at the ceiling", func() {
			routes := map[string]route{}
			for _, p := range strategy.DefaultPaths {
				routes[origin+p] = route{delay: 2 * time.Second, body: "late"}
			}
			strat := strategy.NewWellKnownPathsStrategy(nil, newFakeGetter(routes), 3*time.Second, 100*time.Millisecond, true)

			start := time.Now()
			_, err := strat.Find(context.Background(), domain)
			Expect(err).To(HaveOccurred())
			Expect(time.Since(start)).To(BeNumerically("<", time.Second))
		})

		It("treats per-path timeouts as failures", func() {
			getter := newFakeGetter(map[string]route{
				origin + "/favicon.ico": {delay: time.Second, body: "late"},
			})
			strat := strategy.NewWellKnownPathsStrategy([]string{"/favicon.ico"}, getter, 20*time.Millisecond, time.Second, true)

			_, err := strat.Find(context.Background(), domain)
			Expect(errors.Is(err, fetcher.ErrTimeout)).To(BeTrue())
		})
	})
})

var _ = Describe("HTML strategy", func() {
	const domain = "example.com"
	home := strategy.Origin(domain) + "/"

	It("follows the icon link of the homepage", func() {
		getter := newFakeGetter(map[string]route{
			home: {contentType: "text/html", body: `<html><head><link rel="icon" href="/i.png"></head></html>`},
			"https://example.com/i.png": {contentType: "image/png", body: "I"},
		})
		strat := strategy.NewHTMLStrategy(getter, time.Second, time.Second)

		res, err := strat.Find(context.Background(), domain)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Data).To(Equal([]byte("I")))
		Expect(getter.Calls()).To(Equal([]string{home, "https://example.com/i.png"}))
	})

	It("resolves relative links against the redirected page", func() {
		getter := newFakeGetter(map[string]route{
			home: {finalURL: "https://www.example.com/en/", body: `<link rel="shortcut icon" href="fav.ico">`},
			"https://www.example.com/en/fav.ico": {body: "F"},
		})
		strat := strategy.NewHTMLStrategy(getter, time.Second, time.Second)

		res, err := strat.Find(context.Background(), domain)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(favicon.Result{Data: []byte("F"), ContentType: favicon.DefaultContentType}))
	})

	It("fails without an icon link", func() {
		getter := newFakeGetter(map[string]route{
			home: {body: `<html><head><title>nothing</title></head></html>`},
		})
		_, err := strategy.NewHTMLStrategy(getter, time.Second, time.Second).Find(context.Background(), domain)
		Expect(err).To(MatchError(strategy.ErrNoIconLink))
	})

	It("fails when the homepage errors", func() {
		getter := newFakeGetter(map[string]route{
			home: {status: 500},
		})
		_, err := strategy.NewHTMLStrategy(getter, time.Second, time.Second).Find(context.Background(), domain)
		Expect(err).To(MatchError(strategy.ErrBadStatus))
	})

	It("fails when the linked icon is missing", func() {
		getter := newFakeGetter(map[string]route{
			home: {body: `<link rel="icon" href="/gone.png">`},
		})
		_, err := strategy.NewHTMLStrategy(getter, time.Second, time.Second).Find(context.Background(), domain)
		Expect(err).To(MatchError(strategy.ErrBadStatus))
	})
})
