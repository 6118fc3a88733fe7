package descmeta

import (
	"fmt"
	"slices"

	"github.com/wgbh/bawstun/pkg/logger"
)

var log = logger.Get("DescMeta")

// InitializeFields builds a single blank placeholder entry in each of the
// groups the editor always renders (publisher, contributor, creator,
// identifier and description) if that group is currently empty. Placeholders
// left blank by the editor are later removed by RemoveBlankAssertions.
func (d *Descriptive) InitializeFields() {
	if d.Publisher.IsEmpty() {
		d.Publisher.Build(Person{})
	}
	if d.Contributor.IsEmpty() {
		d.Contributor.Build(Person{})
	}
	if d.Creator.IsEmpty() {
		d.Creator.Build(Person{})
	}
	if d.Identifier.IsEmpty() {
		d.Identifier.Build(Identifier{})
	}
	if d.Description.IsEmpty() {
		d.Description.Build(Description{})
	}
}

// DestroyExistingNested destroys every existing entry of each group which the
// update carries replacement entries for. Groups the update does not mention
// are left untouched.
//
// This must be called before the replacement entries are attached, otherwise
// the new entries would be destroyed along with the old.
func (d *Descriptive) DestroyExistingNested(update *Update) {
	for _, kind := range update.Kinds() {
		n := 0
		switch kind {
		case TitleKind:
			n = d.Title.DestroyAll()
		case CreatorKind:
			n = d.Creator.DestroyAll()
		case ContributorKind:
			n = d.Contributor.DestroyAll()
		case PublisherKind:
			n = d.Publisher.DestroyAll()
		case ProducerKind:
			n = d.Producer.DestroyAll()
		case DescriptionKind:
			n = d.Description.DestroyAll()
		case IdentifierKind:
			n = d.Identifier.DestroyAll()
		case EventKind:
			n = d.Event.DestroyAll()
		}

		if n > 0 {
			log.Emit(logger.REMOVE, "Destroyed %d existing %s entries ahead of replacement\n", n, kind)
		}
	}
}

// RemoveBlankAssertions prunes every nested entry whose significant
// subfields are all empty:
//   - publisher, contributor, creator: name and role
//   - description: value and type
//   - title: value and title type
//   - event locations: location name
//
// Identifier, producer and event entries are never pruned themselves.
func (d *Descriptive) RemoveBlankAssertions() {
	pruned := 0
	pruned += d.Publisher.DestroyWhere(Person.blank)
	pruned += d.Contributor.DestroyWhere(Person.blank)
	pruned += d.Creator.DestroyWhere(Person.blank)
	d.Event.Each(func(ev *Event) {
		before := len(ev.Locations)
		ev.Locations = slices.DeleteFunc(ev.Locations, Location.blank)
		pruned += before - len(ev.Locations)
	})
	pruned += d.Description.DestroyWhere(Description.blank)
	pruned += d.Title.DestroyWhere(Title.blank)

	if pruned > 0 {
		log.Emit(logger.REMOVE, "Pruned %d blank nested entries\n", pruned)
	}
}

// Apply performs a complete edit of the descriptive metadata:
//  1. the update is validated (an invalid update changes nothing),
//  2. existing entries of every group named by the update are destroyed,
//  3. the replacement entries are attached,
//  4. plain terms are assigned,
//  5. blank nested entries are pruned.
func (d *Descriptive) Apply(update Update) error {
	for name := range update.Fields {
		if !IsTerm(name) {
			return fmt.Errorf("cannot apply update: %w: %s", ErrUnknownSetter, name)
		}
	}

	d.DestroyExistingNested(&update)

	if update.Title != nil {
		d.Title.Build(update.Title...)
	}
	if update.Creator != nil {
		d.Creator.Build(update.Creator...)
	}
	if update.Contributor != nil {
		d.Contributor.Build(update.Contributor...)
	}
	if update.Publisher != nil {
		d.Publisher.Build(update.Publisher...)
	}
	if update.Producer != nil {
		d.Producer.Build(update.Producer...)
	}
	if update.Description != nil {
		d.Description.Build(update.Description...)
	}
	if update.Identifier != nil {
		d.Identifier.Build(update.Identifier...)
	}
	if update.Event != nil {
		for _, ev := range update.Event {
			ev.Locations = slices.Clone(ev.Locations)
			d.Event.Build(ev)
		}
	}

	for _, name := range sortedKeys(update.Fields) {
		if err := d.SetField(name, update.Fields[name]); err != nil {
			return err
		}
	}

	d.RemoveBlankAssertions()
	return nil
}
