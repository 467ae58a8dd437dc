// Package storage saves export documents to disk.
//
// Files are named bilibili_following_list_YYYY-MM-DD.html after the export
// day and written through a temporary file plus rename, so a reader never
// sees a half-written document.
package storage
