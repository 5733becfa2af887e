// Package http exposes the post and tag services over chi.
//
// Routes are prefixed with a registered language:
//   - Posts: /{lang}/posts, /{lang}/posts/search?sq=, /{lang}/posts/{id}
//   - Tags: /{lang}/tags, /{lang}/tags/{id}
//   - Registry and probes: /languages, /healthz, /metrics
//
// Missing records and unknown languages answer 404 with an empty body;
// validation failures answer 422 with a field to messages map.
package http
