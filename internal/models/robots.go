package models

import "time"

// DefaultCrawlDelay applies when robots.txt does not specify one.
const DefaultCrawlDelay = time.Second

// RobotsRules is the advisor's answer for one request URL.
type RobotsRules struct {
	CanFetch   bool
	CrawlDelay time.Duration
	UserAgent  string
}
