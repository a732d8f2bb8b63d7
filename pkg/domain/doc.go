// Package domain contains the core types that flow through the logo pipeline:
// domains, resolved logo candidates, download outcomes, fingerprinted image
// assets and the clusters they are grouped into. The types are free of
// infrastructure concerns so they can be shared by the fetch and clustering
// stages.
package domain
