// Package report writes merge run reports and exclusion lists, and keeps an
// archive of reports in object storage.
//
// Local files are named after the run time (merge_report_<unix>.json,
// merge_exclusions_<unix>.txt) and written through an afero filesystem. The
// archive is a bucket prefix; Store uploads, lists, fetches and prunes it.
package report
