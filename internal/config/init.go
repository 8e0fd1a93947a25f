package config

import (
	"fmt"
	"os"
)

const exampleConfig = `# nbpress configuration
site:
  title: "My Notebook Site"
  # base_url: "https://example.github.io/my-book"

content:
  # Source-of-truth directory containing the notebook book
  dir: notebooks

output:
  dir: _build
  html_subdir: html
  images_subdir: _images
  # Remove the whole output tree after a published build
  remove_after_publish: false

preprocess:
  # External notebook preprocessor; leave command empty to skip the stage
  command: nbprep
  # args: ["--strip-output"]
  timeout: 10m

generator:
  command: jb
  build_args: ["build"]
  clean_args: ["clean"]
  timeout: 30m

publish:
  enabled: true
  branch: gh-pages
  remote: origin
  # Forced, history-free publication: both must stay enabled together
  force: true
  orphan: true
  nojekyll: true
  # cname: docs.example.com
  # auth:
  #   type: token
  #   token: ${GITHUB_TOKEN}
  retry:
    max_retries: 2
    initial_delay: 1s
    max_delay: 30s
    backoff: linear

verify:
  links: true

logging:
  level: info
  format: text

metrics:
  enabled: false
  addr: ":9090"

notify:
  enabled: false
  # url: nats://localhost:4222
  # subject: nbpress.builds

history:
  enabled: false
  # path: .nbpress-history.db

watch:
  quiet_window: 500ms
  max_delay: 5s

daemon:
  # rebuild_interval: 1h
`

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
