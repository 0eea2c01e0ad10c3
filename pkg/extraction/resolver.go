package extraction

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/lifebook-lab/lifebook/pkg/db/models"
)

// Resolver maps extracted person candidates to canonical Person rows.
// Resolution is conceptually a lookup but may create or mutate rows
// (creation, display-name upgrade, version-tag promotion), so callers must
// treat it as a transactional write.
type Resolver struct {
	store Store
	cfg   ResolverConfig
	roles map[string]struct{}
}

func NewResolver(store Store, cfg ResolverConfig) *Resolver {
	roles := make(map[string]struct{}, len(cfg.FamilyRoles))
	for _, role := range cfg.FamilyRoles {
		roles[strings.ToLower(role)] = struct{}{}
	}
	return &Resolver{store: store, cfg: cfg, roles: roles}
}

func (r *Resolver) isRole(name string) bool {
	_, ok := r.roles[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Resolve maps one candidate to a person within a pipeline-version
// namespace, in strict precedence order: exact case-insensitive name match
// (type is not part of the match key), role->name promotion for family
// roles, singleton-type fallback, and finally creation under the literal
// extracted name. Returns the person and whether it was created.
func (r *Resolver) Resolve(userID uint, cand PersonCandidate, messageText string, version models.PipelineVersion, firstSeenMemoryID *uint) (*models.Person, bool, error) {
	name := strings.TrimSpace(cand.Name)
	if name == "" {
		return nil, false, errors.New("cannot resolve a person with an empty name")
	}

	// Case 1: exact match, reused unconditionally even on type mismatch.
	person, err := r.store.FindPersonByName(userID, name, version)
	if err != nil {
		return nil, false, err
	}
	if person != nil {
		return person, false, nil
	}

	// Case 2: the extractor handed us a family role ("папа") instead of a
	// name. Promote to a proper name found near the role in the message.
	if cand.Type == models.PersonTypeFamily && r.isRole(name) {
		promoted, ok := FindNearbyName(messageText, name, r.cfg.Window)
		if ok && !r.isRole(promoted) {
			existing, err := r.store.FindPersonByName(userID, promoted, version)
			if err != nil {
				return nil, false, err
			}
			if existing != nil && existing.Type == models.PersonTypeFamily {
				return existing, false, nil
			}
			return r.create(userID, promoted, cand.Type, version, firstSeenMemoryID)
		}
	}

	// Case 3: singleton-type fallback, only when unambiguous.
	sameType, err := r.store.PersonsByType(userID, cand.Type, version)
	if err != nil {
		return nil, false, err
	}
	if len(sameType) == 1 {
		return &sameType[0], false, nil
	}

	// Case 4: nobody matched, create under the literal extracted name.
	return r.create(userID, name, cand.Type, version, firstSeenMemoryID)
}

func (r *Resolver) create(userID uint, name string, personType models.PersonType, version models.PipelineVersion, firstSeenMemoryID *uint) (*models.Person, bool, error) {
	person := &models.Person{
		UserID:            userID,
		DisplayName:       name,
		Type:              personType,
		PipelineVersion:   version,
		FirstSeenMemoryID: firstSeenMemoryID,
	}
	if err := r.store.CreatePerson(person); err != nil {
		return nil, false, err
	}
	return person, true, nil
}

// ResolvedSet is the finalized name->person map produced by batch
// resolution. Merged variant names stay addressable as aliases so the
// second extraction stage can link by whichever spelling it emits.
type ResolvedSet struct {
	byName  map[string]*models.Person
	Persons []*models.Person
	Created int
}

func newResolvedSet() *ResolvedSet {
	return &ResolvedSet{byName: map[string]*models.Person{}}
}

// Lookup finds a person by any known spelling, case-insensitively.
func (s *ResolvedSet) Lookup(name string) (*models.Person, bool) {
	p, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

func (s *ResolvedSet) add(person *models.Person, aliases ...string) {
	seen := false
	for _, existing := range s.Persons {
		if existing.ID == person.ID {
			seen = true
			break
		}
	}
	if !seen {
		s.Persons = append(s.Persons, person)
	}
	s.byName[strings.ToLower(person.DisplayName)] = person
	for _, alias := range aliases {
		alias = strings.ToLower(strings.TrimSpace(alias))
		if alias != "" {
			s.byName[alias] = person
		}
	}
}

// mergedCandidate is one candidate after intra-batch variant folding.
type mergedCandidate struct {
	PersonCandidate
	aliases []string
}

// ResolveBatch handles a whole person-extraction batch before any memory
// extraction runs. Variant folding happens in memory first, before any
// database write for the batch, so "Тася" and "Таиса Владимировна" in one
// model call become a single person under the longer name. Lookups go to
// already-resolved batch entries, then the v2 namespace, then fall back to
// v1 with a version-tag promotion of the matched row.
func (r *Resolver) ResolveBatch(userID uint, cands []PersonCandidate, messageText string) (*ResolvedSet, error) {
	set := newResolvedSet()

	merged := r.mergeVariants(cands)
	for _, cand := range merged {
		if err := r.resolveBatchCandidate(userID, cand, messageText, set); err != nil {
			return nil, err
		}
	}

	return set, nil
}

// mergeVariants folds candidates that are name variants of each other,
// keeping the longer (presumed more formal) name as canonical and the
// maximum confidence seen.
func (r *Resolver) mergeVariants(cands []PersonCandidate) []mergedCandidate {
	var merged []mergedCandidate

next:
	for _, cand := range cands {
		name := strings.TrimSpace(cand.Name)
		if name == "" {
			continue
		}
		cand.Name = name

		for i := range merged {
			kept := &merged[i]
			if !nameVariants(kept.Name, name) {
				continue
			}
			if len([]rune(name)) > len([]rune(kept.Name)) {
				kept.aliases = append(kept.aliases, kept.Name)
				kept.Name = name
				kept.Type = cand.Type
				kept.MentionedAs = cand.MentionedAs
			} else {
				kept.aliases = append(kept.aliases, name)
			}
			if cand.Confidence > kept.Confidence {
				kept.Confidence = cand.Confidence
			}
			continue next
		}

		merged = append(merged, mergedCandidate{PersonCandidate: cand})
	}

	return merged
}

func (r *Resolver) resolveBatchCandidate(userID uint, cand mergedCandidate, messageText string, set *ResolvedSet) error {
	names := append([]string{cand.Name}, cand.aliases...)

	// Earlier resolutions in the same batch win over any database lookup.
	for _, name := range names {
		if person, ok := set.Lookup(name); ok {
			if r.upgradeDisplayName(person, cand.Name) {
				if err := r.store.SavePerson(person); err != nil {
					return err
				}
			}
			set.add(person, names...)
			return nil
		}
	}
	for _, person := range set.Persons {
		if nameVariants(person.DisplayName, cand.Name) {
			if r.upgradeDisplayName(person, cand.Name) {
				if err := r.store.SavePerson(person); err != nil {
					return err
				}
			}
			set.add(person, names...)
			return nil
		}
	}

	// Database lookup: v2 namespace first, then v1 with promotion.
	for _, name := range names {
		person, promoted, err := r.findWithFallback(userID, name)
		if err != nil {
			return err
		}
		if person == nil {
			continue
		}
		changed := r.upgradeDisplayName(person, cand.Name)
		if promoted {
			person.PipelineVersion = models.PipelineV2
			changed = true
		}
		if changed {
			if err := r.store.SavePerson(person); err != nil {
				return err
			}
		}
		set.add(person, names...)
		return nil
	}

	// Variant match against stored persons of the same type: an earlier
	// session may have stored the short form ("Тася") that this batch now
	// spells out in full.
	for _, version := range []models.PipelineVersion{models.PipelineV2, models.PipelineV1} {
		sameType, err := r.store.PersonsByType(userID, cand.Type, version)
		if err != nil {
			return err
		}
		for i := range sameType {
			if !nameVariants(sameType[i].DisplayName, cand.Name) {
				continue
			}
			person := &sameType[i]
			changed := r.upgradeDisplayName(person, cand.Name)
			if version == models.PipelineV1 {
				person.PipelineVersion = models.PipelineV2
				changed = true
			}
			if changed {
				if err := r.store.SavePerson(person); err != nil {
					return err
				}
			}
			set.add(person, names...)
			return nil
		}
	}

	// Role->name promotion, as in single resolution.
	if cand.Type == models.PersonTypeFamily && r.isRole(cand.Name) {
		promoted, ok := FindNearbyName(messageText, cand.Name, r.cfg.Window)
		if ok && !r.isRole(promoted) {
			if person, ok := set.Lookup(promoted); ok {
				set.add(person, names...)
				return nil
			}
			person, wasPromoted, err := r.findWithFallback(userID, promoted)
			if err != nil {
				return err
			}
			if person != nil && person.Type == models.PersonTypeFamily {
				if wasPromoted {
					person.PipelineVersion = models.PipelineV2
					if err := r.store.SavePerson(person); err != nil {
						return err
					}
				}
				set.add(person, names...)
				return nil
			}
			created, _, err := r.create(userID, promoted, cand.Type, models.PipelineV2, nil)
			if err != nil {
				return err
			}
			set.Created++
			set.add(created, names...)
			return nil
		}
	}

	// Singleton-type fallback within the v2 namespace.
	sameType, err := r.store.PersonsByType(userID, cand.Type, models.PipelineV2)
	if err != nil {
		return err
	}
	if len(sameType) == 1 {
		set.add(&sameType[0], names...)
		return nil
	}

	created, _, err := r.create(userID, cand.Name, cand.Type, models.PipelineV2, nil)
	if err != nil {
		return err
	}
	set.Created++
	set.add(created, names...)
	return nil
}

// findWithFallback looks a name up in the v2 namespace, then v1. The
// second return reports that the match came from v1 and needs its version
// tag promoted.
func (r *Resolver) findWithFallback(userID uint, name string) (*models.Person, bool, error) {
	person, err := r.store.FindPersonByName(userID, name, models.PipelineV2)
	if err != nil {
		return nil, false, err
	}
	if person != nil {
		return person, false, nil
	}

	person, err = r.store.FindPersonByName(userID, name, models.PipelineV1)
	if err != nil {
		return nil, false, err
	}
	if person != nil {
		return person, true, nil
	}
	return nil, false, nil
}

// upgradeDisplayName replaces a person's display name when the candidate
// is a longer variant of it. Downgrades never happen.
func (r *Resolver) upgradeDisplayName(person *models.Person, candidate string) bool {
	if !nameVariants(person.DisplayName, candidate) {
		return false
	}
	if len([]rune(candidate)) > len([]rune(person.DisplayName)) {
		person.DisplayName = candidate
		return true
	}
	return false
}
