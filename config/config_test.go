package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Shadownc/favicon-api/config"
	"github.com/Shadownc/favicon-api/internal/favicon"
)

var _ = Describe("Config", func() {
	var (
		tempDir string
		origDir string
	)

	BeforeEach(func() {
		var err error
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tempDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tempDir)
	})

	writeConfig := func(content string) {
		err := os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(content), 0644)
		Expect(err).NotTo(HaveOccurred())
	}

	Describe("Load", func() {
		Context("without a config file", func() {
			It("uses defaults", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Port).To(Equal(3000))
				Expect(cfg.Server.Address()).To(Equal(":3000"))
				Expect(cfg.Server.Environment).To(Equal(config.EnvDev))
				Expect(cfg.Probe.Concurrent).To(BeTrue())
				Expect(cfg.Probe.Ceiling).To(Equal(4 * time.Second))
				Expect(cfg.Probe.PathTimeout).To(Equal(3 * time.Second))
				Expect(cfg.Service.Enabled).To(BeTrue())
				Expect(cfg.Service.Timeout).To(Equal(3 * time.Second))
				Expect(cfg.HTML.PageTimeout).To(Equal(5 * time.Second))
				Expect(cfg.SpecialDomains).To(BeEmpty())
			})

			It("takes the port from PORT", func() {
				GinkgoT().Setenv("PORT", "8123")
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Port).To(Equal(8123))
			})

			It("applies nested environment overrides", func() {
				GinkgoT().Setenv("PROBE_CONCURRENT", "false")
				GinkgoT().Setenv("HTML_PAGE_TIMEOUT", "750ms")
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Probe.Concurrent).To(BeFalse())
				Expect(cfg.HTML.PageTimeout).To(Equal(750 * time.Millisecond))
			})

			It("rejects an invalid environment value", func() {
				GinkgoT().Setenv("LOGGING_LEVEL", "verbose")
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with a valid config file", func() {
			BeforeEach(func() {
				writeConfig(`
server:
  port: 8080
  environment: "prod"

logging:
  level: "debug"

probe:
  concurrent: false
  paths: ["/favicon.ico", "/img/icon.png"]
  ceiling: "2s"

service:
  enabled: false

special_domains:
  - domain: "GitHub.com"
    url: "https://github.githubassets.com/favicons/favicon.svg"
    timeout: "1500ms"
`)
			})

			It("parses every section", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Port).To(Equal(8080))
				Expect(cfg.Server.Environment).To(Equal(config.EnvProd))
				Expect(cfg.Logging.Level).To(Equal(config.LogLevelDebug))
				Expect(cfg.Probe.Concurrent).To(BeFalse())
				Expect(cfg.Probe.Paths).To(Equal([]string{"/favicon.ico", "/img/icon.png"}))
				Expect(cfg.Probe.Ceiling).To(Equal(2 * time.Second))
				Expect(cfg.Service.Enabled).To(BeFalse())
				Expect(cfg.SpecialDomains).To(HaveLen(1))
			})

			It("builds normalized rules", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())

				rules, err := cfg.Rules()
				Expect(err).NotTo(HaveOccurred())
				Expect(rules).To(Equal([]favicon.Rule{{
					Domain:  "github.com",
					URL:     "https://github.githubassets.com/favicons/favicon.svg",
					Timeout: 1500 * time.Millisecond,
				}}))
			})
		})

		Context("with an invalid config file", func() {
			It("rejects unknown environments", func() {
				writeConfig("server:\n  environment: \"qa\"\n")
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("rejects relative probe paths", func() {
				writeConfig("probe:\n  paths: [\"favicon.ico\"]\n")
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("rejects a service template without a placeholder", func() {
				writeConfig("service:\n  url_template: \"https://icons.example/fixed.png\"\n")
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("rejects special domains with a non-http URL", func() {
				writeConfig(`
special_domains:
  - domain: "example.com"
    url: "ftp://example.com/icon.ico"
    timeout: "1s"
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("rejects special domains without a timeout", func() {
				writeConfig(`
special_domains:
  - domain: "example.com"
    url: "https://example.com/icon.ico"
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("rejects malformed YAML", func() {
				writeConfig("server: [unclosed\n")
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})
	})
})
