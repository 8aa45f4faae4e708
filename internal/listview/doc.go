// Package listview paginates an ordered sequence of transcriptions.
//
// A Pager owns only the sequence it was last given and a 1-based current
// page. It never sorts or filters; every new sequence handed to SetItems
// starts again at page 1.
package listview
