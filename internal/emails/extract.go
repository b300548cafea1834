// Package emails augments harvested contact CSVs with email addresses
// scraped from each row's website and its contact page.
package emails

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var emailRe = regexp.MustCompile(`[a-zA-Z0-9_.+\-]+@[a-zA-Z0-9\-]+\.[a-zA-Z0-9\-.]+`)

// ExtractPage scans a parsed page for email addresses and candidate
// contact-page links. Emails are matched in anchor hrefs (including mailto:),
// anchor text, and the page's visible text. Contact pages are links whose
// href or text mentions "contact", resolved against pageURL.
func ExtractPage(doc *goquery.Document, pageURL string) (emails, contactPages []string) {
	base, baseErr := url.Parse(pageURL)

	emailSet := make(map[string]struct{})
	pageSet := make(map[string]struct{})

	collect := func(s string) {
		for _, m := range emailRe.FindAllString(s, -1) {
			emailSet[strings.ToLower(strings.Trim(m, "."))] = struct{}{}
		}
	}

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		text := strings.TrimSpace(a.Text())

		collect(strings.TrimPrefix(href, "mailto:"))
		collect(text)

		if href == "" || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			return
		}
		if !strings.Contains(strings.ToLower(href), "contact") &&
			!strings.Contains(strings.ToLower(text), "contact") {
			return
		}
		if baseErr != nil {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		resolved.Fragment = ""
		pageSet[resolved.String()] = struct{}{}
	})

	collect(doc.Text())

	emails = keys(emailSet)
	contactPages = keys(pageSet)
	return emails, contactPages
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
