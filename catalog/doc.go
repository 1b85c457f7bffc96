// Package catalog defines the component data model, the filter predicates
// the search engine composes, and the Store contract a backing document
// store implements.
//
// Family paths reach storage from several ingestion pipelines and are not
// uniformly shaped: most are label arrays in leaf-to-root order, some are a
// single delimited string. FamilyPath is the one type that understands both.
package catalog
