package labeling

import "fmt"

// clipSystemPrompt frames the clip-coding request and carries the study's
// 18-label codebook. The model is instructed to return only code labels;
// replies are still recorded verbatim either way.
const clipSystemPrompt = "You are coding a single video clip frame for dataset coding. " + codebook

const codebook = `CODE_EXAMPLES (codebook)

All codes below are marked in a format like: ` + "`code_label :: description`" + `. The description may include example imagery, scene details, or other context to guide coding. All examples are marked in Markdown unordered lists.

Only return the code_label in your output, comma-separated if multiple apply. Do NOT return the descriptions or examples in your output.

code_campus :: University environment, Campus aesthetics
- aerial campus overview (brick buildings, clock/bell tower, tree-lined walks)
- signature landmarks (fountain/statue circled by paths and benches)
- historic hall exterior (Gothic facade, arched windows, manicured lawn)
- modern student center (glass facade, flag/signage, landscaped entrance)
- quad in season (students crossing brick paths under autumn foliage/spring blooms)
- library interior (high ceilings, stacks/study tables, skylight)
- night stadium district (lit athletics complex with adjacent academic buildings)

code_student :: Student life
- students on the quad (small study circle on the grass, laptops and notebooks)
- friends at picnic table (casual conversation, snacks/laptops, campus backdrop)
- walk-and-talk between classes (backpacks on brick walkway near academic buildings)
- dorm hangout (posed selfies on lofted beds, string lights, posters)
- game-day bleachers (students cheering in school colors at indoor court)
- wellness/rec moment (yoga on lawn/fitness ropes in campus gym)
- mascot meet-and-greet (photos with mascot on field/at campus festival)

code_teaching :: Teaching, classroom, training
- whiteboard lecture (instructor pointing to equations/diagrams in classroom)
- nursing simulation bedside care (students in scrubs practicing on mannequin)
- hands-on workshop (faculty guiding welding/milling/CNC operation)
- studio coaching (music/audio mixing console demo in darkened lab)
- flight/vehicle simulator (instructor at console, runway or cockpit visuals)
- lab walk-through (pipettes, models, safety goggles, bench instruction)
- seminar around the table (laptops open, facilitator leading discussion)

code_athletics :: Intercollegiate athletics
- players on athletics field (football huddle/tackle under stadium lights)
- indoor court action (basketball drives/layups with bleachers)
- volleyball at the net (jump spikes/blocks on polished floor)
- soccer under the lights (dribble/shot with scoreboard behind)
- baseball/softball moment (swing, slide, or dugout celebration)
- swim lanes (dive or mid-stroke in blue pool with markers)
- track & field (sprint blocks/hurdles on red or blue track)

code_academics :: Academics, studying, group work
- library study tables (laptops, open texts, quiet focus)
- project huddle (charts/wireframes on whiteboard, small-group planning)
- typing close-up (hands on keyboard, study nook or reading room)
- podium presentation (speaker with projected graphs/data behind)
- computing and coding work (students at workstations, multi-monitor setup)
- advising/tutoring (two-three students with notes and faculty guidance)
- discipline-specific visual aid (maps, anatomical models, or legal volumes in frame)

code_finearts :: Fine arts
- main-stage performance (orchestra/choir under spotlights with conductor)
- dance rehearsal (mirrored studio, leaps/lines, polished floor)
- studio art making (pottery wheel/easel painting, tools and clay)
- recital solo (violin/sax/acoustic guitar under warm light)
- theater scene (costumed actors on set with props and dramatic lighting)
- gallery walkthrough (visitors with sculptures/framed works on walls)
- jazz combo (brass and rhythm section in dim auditorium)

code_research :: Research, laboratory
- bench science in action (pipetting, test tubes, microscopes, lab coats)
- advanced instrumentation (CNC/robotic arm/server racks under supervision)
- field study (stream sampling, greenhouse plants, beekeeping frames)
- medical imaging/ultrasound (student analyzing live monitor output)
- maker-research overlap (3D printer prototyping in engineering lab)
- drone operations (outdoor test flight with controller and observers)
- data review (heatmaps/charts open on large display during analysis)

code_value :: Value, Success
- commencement procession (rows of caps and gowns entering venue)
- on-stage diploma moment (handshake/hooding with faculty regalia)
- cap toss celebration (graduates raising mortarboards outdoors)
- family embrace (graduate with relatives post-ceremony)
- regalia detail (tassels, cords, or medals close-up)
- arena panorama (packed seating, banners, stage view)
- cohort group photo (diplomas in hand at campus landmark)

code_industry :: Employment, work, industry
- shop-floor training (welding sparks/grinder in industrial bay)
- ag/land-grant scene (tractor/combine, students amid rows of crops)
- aviation tech (flightline checks/simulator cockpit)
- culinary line (chef demo at stainless stations, plated dishes)
- automotive service (diagnostics tablet/lifted vehicle)
- broadcast/studio ops (control room boards, headsets, cameras)
- public service/military (cadet formation/firefighter drills)

code_brand :: University brand, brand mark
- logo lock-up (university crest/seal on solid or textured background)
- monument signage (large gateway/stone sign with emblem)
- mascot branding (costumed character in arena/on quad)
- event backdrop (podium seal/banner in ceremony setting)
- apparel & merch (bookstore display/branded sweatshirts)
- athletics identity (lettered seats/field marks/jerseys)
- campaign graphic (school name + tagline over campus imagery)

code_advertisement :: Advertisement
- rankings overlay (aerial campus with "Top #/Ranked" text)
- program promo card (accreditation/outcomes on bold background)
- slogan splash ("Transform Your Life Today" over purple campus hue)
- open-day montage (sign + URL + admissions call to action)
- sports tournament banner (event logo with date and host)
- achievement tile (Carnegie/designation shield in gold)
- destination billboard (campus or partner site with apply link)

code_location :: Location
- region reveal (skyline/capitol dome/coastal harbor beyond campus)
- mountains & hills (aerial valley/ridge above the university)
- waterfront (sandy beach/kayaks along rocky shoreline)
- bridges & rivers (span over waterway, industrial backdrop)
- channel (freighter or canal)
- winter wildlife (snow-covered trees, deer near campus edge)
- park & trail (wooded paths, benches, stone buildings peeking through)

code_social :: Belonging, Ethics, social responsibility
- campus celebration (cheering crowd with hands raised outdoors)
- cultural flags line-up (students posing with international flags)
- service day (cleanup/garden planting with bags and tools)
- faith/chapel gathering (raised hands, choir/ceremony seating)
- club-fair table (branded tablecloth, brochures, flowers)
- night social (dancing under string lights/indoor party)
- spirit moment (students with mascot with foam fingers)

code_innovation :: Innovation
- robotics demo (industrial arm/wheeled rover in makerspace)
- VR/AR immersion (headset user with simulated content)
- 3D printing lab (prototype emerging on build plate)
- smart lab walkthrough (advanced instruments, LED lighting, screens)
- design ideation (sketching footwear/product with swatches)
- esports/tech studio (gaming rigs, team jerseys, stage lighting)
- sustainability tech (solar install/hydroponic trays under LEDs)

code_atmosphere :: Atmosphere, vibe
- indoor/abstract ambience (conceptual light on black, waves)
- nature and outdoors (curving forest roadway, river gorge outlook, wildlife)
- weather and landscapes (misty mountain valley, open rural highway)

code_management :: Management, leadership
- leader at podium (address with school seal and flags)
- ribbon-cutting (executives with shovels/scissors under stage lights)
- boardroom seminar (suits, slide deck, planning whiteboard)
- career/industry mixer (handshakes at booth/hallway meet-and-greet)
- panel dialogue (dais with mics, auditorium audience)
- classroom leadership talk (blazer-clad speaker with cohort)
- official signing (administrator at desk, document close-up)

code_international :: International Projection
- flag hall (atrium/stage lined with national flags)
- graduates with flags (regalia plus country banners)
- cultural performance (traditional dress on campus stage)
- global fair (tables with maps, food, and language displays)
- program signage ("International Studies" wall or doorway marker)
- map motif (world/regional map graphic in academic space)
- multicultural processional (mixed flags during ceremony)

code_feature :: Feature story
- Interview vignettes (woman in ornate interior, young man with cityscape backdrop)
- textual graphic context ("70 YEARS AGO" historical framing)
- historical photos (pixelated, grayscale photography)`

// clipUserPrompt carries the clip identity and the resolver's
// continuation-range hint alongside the frame.
func clipUserPrompt(domain string, clip int, continuationRange string) string {
	if continuationRange == "" {
		continuationRange = "(none)"
	}
	return fmt.Sprintf("Domain: %s\nClip: %d\nContinuation scenes on disk: %s\n"+
		"Please provide the code label(s) of this clip's representative image. "+
		"Do not provide code descriptions. Only return the code label(s), comma-separated if multiple apply.",
		domain, clip, continuationRange)
}

// describePrompt is the per-scene description request.
const describePrompt = "This is a screenshot of a video displayed on a higher education institution website. " +
	"Describe what this image shows. Do not include any formatting markdown, or provide any introduction " +
	"to the response. Just give the visual description of the photo."

// categorizePrompt is the per-scene categorization request.
const categorizePrompt = "Categorize this photo. Only provide the category without markdown formatting as " +
	"plain text, or use Other if it does not match. Categories are: " +
	"**Academics, Teaching and Research**: Student(s) in a classroom or lab (safety glasses; lab coat; " +
	"scientific equipment); faculty/older individual present (non-traditional college age) at blackboard; " +
	"lecture; students outside in circle with presence of instructor; sole image of instructor; books; " +
	"computer lab, high-tech equipment (e.g., solar panels, high-powered telescope)." +
	"**University environment, Campus aesthetics**: Architecture; campus lawns; buildings as sole focus of " +
	"image; marquee/signs on buildings; trees; garden; lawn; flowers; mountains; statues; signs on campus; snow." +
	"**Management**: Entrepreneurship, management, governance." +
	"**International Projection**: International students, campuses, and organizations." +
	"**Innovation**: Technological innovation, educational innovation and management Innovation, " +
	"commercialization efforts, university differentiation." +
	"**Social responsibility**: Equity, belonging." +
	"**Fine arts**: Playing instrument; on stage; painting; sculpting; drawing; singing; acting; costumes; " +
	"artwork; museums; theatre stills." +
	"**Intercollegiate athletics**: Players on playing field; team uniforms present; sports statues near " +
	"stadium cheerleaders; fans cheering; stadium and fans; sports memorabilia."
