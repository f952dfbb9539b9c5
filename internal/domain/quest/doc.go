// Package quest contains the job ("quest") side of the JobQuest domain.
//
// It defines:
//
//   - Job and Draft: a catalog entry and the partial input it is built from
//   - Catalog: the per-profile job map, handled as an immutable value
//   - Profile, Preferences and Registry: the job seekers and which one is active
//
// Jobs are created through NewJob, which fills defaults for every missing
// field and validates the result:
//
//	job, err := quest.NewJob("job-42", quest.Draft{Title: "Localization Lead", Rarity: 4})
//	catalog = catalog.With(job)
//
// The package has no storage concerns. Persistence lives in
// infrastructure/persistence behind the repository interfaces of the progress package.
package quest
