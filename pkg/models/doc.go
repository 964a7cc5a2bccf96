// Package models defines the persisted entities of the notebase document
// workspace and the typed identifiers that connect them.
//
// The central entity is [Block], the atomic content unit of a [Page]. Blocks
// form a forest per page through ParentBlockID, ordered within each sibling
// group by a fractional Order key. The block's Content column is schemaless
// JSONB at the storage layer ([JSONMap]) but is always decodable into
// exactly one typed payload per [BlockType] via [DecodeContent]; the set of
// types is closed and unknown types are rejected at validation time.
//
// Identifiers are typed wrappers over UUIDs so the compiler distinguishes a
// BlockID from a PageID. Every ID serializes identically across JSON, CBOR,
// and SQL.
package models
