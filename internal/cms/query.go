package cms

import (
	"fmt"
	"strconv"
)

// BuildQuery returns the GraphQL document used at site-generation time. The
// build pipeline exposes the CMS under the cmsApi namespace.
func BuildQuery(content string) string {
	return fmt.Sprintf(`query ContactPageQuery($locale: String!) {
  cmsApi {
    page(content: %s, locale: $locale) {
      name
      type
      value
    }
  }
}`, strconv.Quote(content))
}

// LiveQuery returns the equivalent document for the live API, which serves
// the page field at the root.
func LiveQuery(content string) string {
	return fmt.Sprintf(`query ContactPageQuery($locale: String!) {
  page(content: %s, locale: $locale) {
    name
    type
    value
  }
}`, strconv.Quote(content))
}
