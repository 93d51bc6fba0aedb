// Package artifact uploads generated images, narration, and rendered videos
// and hands back URLs the compositor and clients can read.
//
// Objects are keyed <prefix>/<folder>/<uuid>.<ext>, with folders images,
// audio, and renders. The backend is chosen by [storage].backend: local
// files, Google Cloud Storage (emulator aware), or Amazon S3. When
// storage.public_base_url is set it replaces the backend URL so a CDN or
// static file server can front the bucket.
package artifact
