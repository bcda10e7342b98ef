// Package roboflow talks to the dataset hosting API that serves labeled
// export archives.
//
// Export resolution and archive download are separate calls on the provider
// side; the client exposes both plus a combined Fetch that reuses an
// already-downloaded dataset directory. Archives are spooled to disk and
// extracted into a staging directory so the final dataset path only ever
// appears complete.
package roboflow
